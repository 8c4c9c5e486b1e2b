package sound

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

var errNoChannels = errors.New("sound: buffer has no channels")

// EncodeWAV writes b to w as a 16-bit PCM WAV file.
func EncodeWAV(w io.WriteSeeker, b *Buffer) error {
	channels := b.NumChannels()
	if channels == 0 {
		return errNoChannels
	}
	for i, ch := range b.Channels {
		if len(ch) != b.Len() {
			return fmt.Errorf("sound: channel %d has %d samples, want %d", i, len(ch), b.Len())
		}
	}

	data := make([]int, 0, b.Len()*channels)
	for i := 0; i < b.Len(); i++ {
		for _, ch := range b.Channels {
			data = append(data, toInt16(ch[i]))
		}
	}

	enc := wav.NewEncoder(w, b.SampleRate, wavBitDepth, channels, wavPCM)
	if err := enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  b.SampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}); err != nil {
		return fmt.Errorf("sound: wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("sound: wav: %w", err)
	}

	return nil
}

func toInt16(v float32) int {
	x := math.Round(float64(v) * 32768)
	switch {
	case x > math.MaxInt16:
		return math.MaxInt16
	case x < math.MinInt16:
		return math.MinInt16
	}
	return int(x)
}
