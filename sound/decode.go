package sound

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var (
	errInvalidWAV  = errors.New("sound: not a valid wav file")
	errUnsupported = errors.New("sound: unsupported audio format")
)

// Decoder turns compressed or encoded audio into a Buffer.
type Decoder interface {
	Decode(r io.ReadSeeker) (*Buffer, error)
}

// The DecoderFunc type is an adapter to allow the use of ordinary functions
// as a Decoder.
type DecoderFunc func(io.ReadSeeker) (*Buffer, error)

// Decode calls f(r).
func (f DecoderFunc) Decode(r io.ReadSeeker) (*Buffer, error) {
	return f(r)
}

var (
	// WAV decodes RIFF WAVE files of any integer bit depth
	WAV Decoder = DecoderFunc(decodeWAV)
	// MP3 decodes MPEG-1 layer 3 files, always yielding two channels
	MP3 Decoder = DecoderFunc(decodeMP3)
)

// DecoderFor returns the Decoder for a filename based on its extension.
func DecoderFor(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return WAV, nil
	case ".mp3":
		return MP3, nil
	}
	return nil, fmt.Errorf("%w: %s", errUnsupported, filepath.Ext(filename))
}

// IsAudio reports whether filename has an extension DecoderFor understands.
func IsAudio(filename string) bool {
	_, err := DecoderFor(filename)
	return err == nil
}

func decodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errInvalidWAV
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sound: wav: %w", err)
	}

	channels := int(dec.NumChans)
	if channels == 0 {
		return &Buffer{SampleRate: int(dec.SampleRate)}, nil
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d bit wav", errUnsupported, bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))

	// 8-bit WAV samples are unsigned
	var offset int
	if bitDepth == 8 {
		offset = 128
	}

	b := NewBuffer(int(dec.SampleRate), channels, len(pcm.Data)/channels)
	for i, v := range pcm.Data[:b.Len()*channels] {
		b.Channels[i%channels][i/channels] = float32(v-offset) / scale
	}

	return b, nil
}

// mp3FrameSize is one 16-bit little endian stereo sample frame. go-mp3
// always decodes to this layout, even for mono sources.
const mp3FrameSize = 4

func decodeMP3(r io.ReadSeeker) (*Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("sound: mp3: %w", err)
	}

	var frames int64
	if n := dec.Length(); n > 0 {
		frames = n / mp3FrameSize
	}

	left, right, err := readStereo16(dec, int(frames))
	if err != nil {
		return nil, fmt.Errorf("sound: mp3: %w", err)
	}

	return &Buffer{
		SampleRate: dec.SampleRate(),
		Channels:   [][]float32{left, right},
	}, nil
}

// readStereo16 reads interleaved 16-bit little endian stereo frames from r
// until EOF, splitting them into left and right channels. Reads may end
// mid-frame; the remainder is carried into the next read and a trailing
// partial frame is dropped. frames is only a capacity hint.
func readStereo16(r io.Reader, frames int) ([]float32, []float32, error) {
	left := make([]float32, 0, frames)
	right := make([]float32, 0, frames)

	chunk := make([]byte, 4096)
	var pending int
	for {
		n, err := r.Read(chunk[pending:])
		n += pending

		whole := n - n%mp3FrameSize
		for i := 0; i < whole; i += mp3FrameSize {
			l := int16(binary.LittleEndian.Uint16(chunk[i:]))
			r := int16(binary.LittleEndian.Uint16(chunk[i+2:]))
			left = append(left, float32(l)/32768)
			right = append(right, float32(r)/32768)
		}

		// Keep any partial frame for the next read
		pending = copy(chunk, chunk[whole:n])

		if err == io.EOF {
			return left, right, nil
		}
		if err != nil {
			return nil, nil, err
		}
	}
}
