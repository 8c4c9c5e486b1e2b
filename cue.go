package lofi

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/lofi/sound"
	"github.com/vchimishuk/chub/cue"
)

var errNoAudio = errors.New("lofi: cue sheet references no supported audio files")

// containsCue reports whether dir holds a cue sheet
func containsCue(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	for _, e := range entries {
		if !e.IsDir() && isCue(e.Name()) {
			return true, nil
		}
	}

	return false, nil
}

// audioFilesFromCue returns the audio files referenced by a cue sheet,
// resolved relative to the directory holding it
func audioFilesFromCue(file string) ([]string, error) {
	sheet, err := cue.ParseFile(file)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range sheet.Files {
		// Sheets written on Windows use backslashes
		name := filepath.Join(filepath.Dir(file), filepath.Clean(strings.ReplaceAll(f.Name, "\\", string(os.PathSeparator))))
		if sound.IsAudio(name) {
			files = append(files, name)
		}
	}

	if len(files) == 0 {
		return nil, errNoAudio
	}

	return files, nil
}
