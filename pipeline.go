package lofi

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/lofi/frame"
	"github.com/bodgit/lofi/sound"
)

const (
	numWorkers   = 10
	outputSuffix = ".lofi"
)

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func isCue(file string) bool {
	return strings.ToLower(filepath.Ext(file)) == ".cue"
}

func (l *Lofi) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)

		// Whether each directory visited so far holds a cue sheet
		cues := make(map[string]bool)

		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, the base itself
			// is always allowed
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			// Skip our own output
			if strings.HasSuffix(strings.TrimSuffix(info.Name(), filepath.Ext(file)), outputSuffix) {
				return nil
			}

			switch {
			case isImage(file), isCue(file):
			case sound.IsAudio(file):
				// Audio next to a cue sheet is converted through the
				// sheet instead
				dir := filepath.Dir(file)
				hasCue, ok := cues[dir]
				if !ok {
					if hasCue, err = containsCue(dir); err != nil {
						return err
					}
					cues[dir] = hasCue
				}
				if hasCue {
					return nil
				}
			default:
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// outputPath mirrors the location of file relative to base under outDir.
// The source extension is kept so that "a.png" and "a.jpg" don't collide.
func outputPath(base, outDir, file, ext string) (string, error) {
	root := base
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		root = filepath.Dir(base)
	}

	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}

	out := filepath.Join(outDir, rel+outputSuffix+ext)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}

	return out, nil
}

// converter owns the frame pipeline used by a single worker
type converter struct {
	l      *Lofi
	canvas *frame.Canvas
	frames *FramePipeline
}

func (l *Lofi) newConverter() (*converter, error) {
	canvas := frame.NewCanvas()
	frames, err := NewFramePipeline(l.config, canvas)
	if err != nil {
		return nil, err
	}
	return &converter{
		l:      l,
		canvas: canvas,
		frames: frames,
	}, nil
}

func decodeImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

// degradeImage returns the degraded version of m, or nil if m has no area
func (c *converter) degradeImage(m image.Image) (*image.NRGBA, error) {
	ok, err := c.frames.process(frame.NewImageSource(m))
	if err != nil || !ok {
		return nil, err
	}
	return c.canvas.Snapshot(), nil
}

func (c *converter) convertImage(file, out string) (rerr error) {
	m, err := decodeImage(file)
	if err != nil {
		return err
	}

	q, err := c.degradeImage(m)
	if err != nil {
		return err
	}
	if q == nil {
		c.l.logger.Printf("Skipping empty image \"%s\"\n", file)
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	return png.Encode(f, q)
}

func (l *Lofi) decodeAudio(file string) (*sound.Buffer, error) {
	dec, err := sound.DecoderFor(file)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := WrapDecoder(dec, l.degrader).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return b, nil
}

func (l *Lofi) convertAudio(file, out string) (rerr error) {
	b, err := l.decodeAudio(file)
	if err != nil {
		return err
	}
	if b.NumChannels() == 0 {
		l.logger.Printf("Skipping \"%s\" with no channels\n", file)
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	return sound.EncodeWAV(f, b)
}

func (c *converter) convert(base, outDir, file string) error {
	switch {
	case isImage(file):
		out, err := outputPath(base, outDir, file, ".png")
		if err != nil {
			return err
		}
		if err := c.convertImage(file, out); err != nil {
			return err
		}
		c.l.logger.Printf("Converted \"%s\" to \"%s\"\n", file, out)
	case isCue(file):
		files, err := audioFilesFromCue(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		for _, track := range files {
			if err := c.convert(base, outDir, track); err != nil {
				return err
			}
		}
	case sound.IsAudio(file):
		out, err := outputPath(base, outDir, file, ".wav")
		if err != nil {
			return err
		}
		if err := c.l.convertAudio(file, out); err != nil {
			return err
		}
		c.l.logger.Printf("Converted \"%s\" to \"%s\"\n", file, out)
	}
	return nil
}

func (l *Lofi) fileWorker(ctx context.Context, base, outDir string, in <-chan string) (<-chan error, error) {
	c, err := l.newConverter()
	if err != nil {
		return nil, err
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				return
			}
			if err := c.convert(base, outDir, file); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline drains every error channel and returns the first error
// seen. The pipeline is cancelled as soon as anything fails so the remaining
// stages stop early, but it only returns once they have all finished.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)

	wg.Add(len(errs))
	for _, c := range errs {
		go func(c <-chan error) {
			defer wg.Done()
			for err := range c {
				if err != nil {
					once.Do(func() {
						first = err
						cancel()
					})
				}
			}
		}(c)
	}
	wg.Wait()

	return first
}

// Convert degrades every supported file found at path, which may be a
// single file or a directory, writing the results under outDir. Images are
// written as PNG and audio as 16-bit WAV, each named after its source with
// a ".lofi" suffix and the new extension, so "a.jpg" becomes
// "a.jpg.lofi.png". Cue sheets are expanded to the audio files they list.
func (l *Lofi) Convert(path, outDir string) error {
	base, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := l.findFiles(ctx, base)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < numWorkers; i++ {
		errc, err := l.fileWorker(ctx, base, outDir, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
