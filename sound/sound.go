/*
Package sound implements the audio half of the degradation pipeline along
with the decoders and encoders used to get audio in and out of it.

Decoded audio is held as a Buffer of per-channel float32 samples in the
range [-1, 1]. The Degrader mutates those samples in place, never changing
how many channels or samples there are.
*/
package sound

import "errors"

// ErrParameters is returned when degradation parameters are out of range.
var ErrParameters = errors.New("sound: invalid degradation parameters")

// Buffer is decoded audio, one slice of samples per channel. All channels
// hold the same number of samples.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewBuffer returns a silent Buffer.
func NewBuffer(sampleRate, channels, samples int) *Buffer {
	b := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for i := range b.Channels {
		b.Channels[i] = make([]float32, samples)
	}
	return b
}

// NumChannels returns the number of channels in the buffer.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of samples in each channel.
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}
