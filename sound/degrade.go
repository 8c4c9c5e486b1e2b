package sound

import (
	"fmt"
	"math"
)

// Degrader reduces the effective sample rate and amplitude resolution of
// audio. Every run of HoldFactor samples takes the value of its first
// sample, which is then rounded to the nearest multiple of
// 1/AmplitudeSteps.
type Degrader struct {
	holdFactor     int
	amplitudeSteps int
	steps          float64
}

// NewDegrader returns a Degrader. Both parameters must be at least one.
func NewDegrader(holdFactor, amplitudeSteps int) (*Degrader, error) {
	if holdFactor < 1 {
		return nil, fmt.Errorf("%w: hold factor %d", ErrParameters, holdFactor)
	}
	if amplitudeSteps < 1 {
		return nil, fmt.Errorf("%w: amplitude steps %d", ErrParameters, amplitudeSteps)
	}
	return &Degrader{
		holdFactor:     holdFactor,
		amplitudeSteps: amplitudeSteps,
		steps:          float64(amplitudeSteps),
	}, nil
}

// HoldFactor returns the number of consecutive samples sharing a value.
func (d *Degrader) HoldFactor() int { return d.holdFactor }

// AmplitudeSteps returns the number of amplitude levels either side of zero.
func (d *Degrader) AmplitudeSteps() int { return d.amplitudeSteps }

func (d *Degrader) round(v float32) float32 {
	x := float64(v)
	switch {
	case math.IsNaN(x):
		x = 0
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}
	return float32(math.Round(x*d.steps) / d.steps)
}

// DegradeChannel degrades samples in place in a single pass.
func (d *Degrader) DegradeChannel(samples []float32) {
	for i := 0; i < len(samples); i += d.holdFactor {
		v := d.round(samples[i])

		end := i + d.holdFactor
		if end > len(samples) {
			end = len(samples)
		}
		for j := i; j < end; j++ {
			samples[j] = v
		}
	}
}

// Degrade degrades every channel of b in place. A nil or empty buffer is
// left alone.
func (d *Degrader) Degrade(b *Buffer) {
	if b == nil {
		return
	}
	for _, ch := range b.Channels {
		d.DegradeChannel(ch)
	}
}
