/*
Package lofi degrades rendered frames and decoded audio to emulate a low
color, low sample rate aesthetic without touching the engines that produce
them.

Frames are read back from a render target, reduced to a small palette built
fresh for every frame, dithered and presented on a surface. Audio buffers
are sample-and-held and rounded to a handful of amplitude levels in place.
Both are wired into a host through the WrapRenderer and WrapDecoder
decorators, or run over files on disk with Convert.
*/
package lofi

import (
	"errors"
	"fmt"
	"log"

	"github.com/bodgit/lofi/palette"
	"github.com/bodgit/lofi/sound"
	"github.com/ericpauley/go-quantize/quantize"
)

// Names of the median cut aggregations selectable in a Config.
const (
	// PaletteMean averages each box of colors, weighted by pixel count
	PaletteMean = "mean"
	// PaletteMode picks the most common color in each box
	PaletteMode = "mode"
)

var errBadConfig = errors.New("lofi: invalid configuration")

// Config holds the parameters of both pipelines. It is fixed once a Lofi or
// FramePipeline has been created.
type Config struct {
	// Colors is the maximum palette size per frame
	Colors int
	// Sample only counts every Sample'th pixel when building a palette
	Sample int
	// Dither enables Floyd-Steinberg error diffusion
	Dither bool
	// Palette names how each median cut box is reduced to a color
	Palette string
	// HoldFactor is how many consecutive audio samples share one value
	HoldFactor int
	// AmplitudeSteps is the number of amplitude levels either side of zero
	AmplitudeSteps int
}

// DefaultConfig returns the default configuration of sixteen dithered
// colors and audio held for four samples at sixteen levels.
func DefaultConfig() Config {
	return Config{
		Colors:         16,
		Sample:         1,
		Dither:         true,
		Palette:        PaletteMean,
		HoldFactor:     4,
		AmplitudeSteps: 16,
	}
}

// Validate checks every field is within range.
func (c Config) Validate() error {
	switch {
	case c.Colors < 1 || c.Colors > palette.MaxColors:
		return fmt.Errorf("%w: colors must be in [1, %d], got %d", errBadConfig, palette.MaxColors, c.Colors)
	case c.Sample < 1:
		return fmt.Errorf("%w: sample must be at least 1, got %d", errBadConfig, c.Sample)
	case c.HoldFactor < 1:
		return fmt.Errorf("%w: hold factor must be at least 1, got %d", errBadConfig, c.HoldFactor)
	case c.AmplitudeSteps < 1:
		return fmt.Errorf("%w: amplitude steps must be at least 1, got %d", errBadConfig, c.AmplitudeSteps)
	}
	if _, err := c.builder(); err != nil {
		return err
	}
	return nil
}

func (c Config) builder() (palette.Builder, error) {
	switch c.Palette {
	case PaletteMean:
		return palette.Quantize{Sample: c.Sample, Aggregation: quantize.Mean}, nil
	case PaletteMode:
		return palette.Quantize{Sample: c.Sample, Aggregation: quantize.Mode}, nil
	}
	return nil, fmt.Errorf("%w: unknown palette aggregation %q", errBadConfig, c.Palette)
}

const configFormat = "colors=%d sample=%d dither=%t palette=%s hold=%d steps=%d"

// String returns the configuration in the form read by ParseConfig.
func (c Config) String() string {
	return fmt.Sprintf(configFormat, c.Colors, c.Sample, c.Dither, c.Palette, c.HoldFactor, c.AmplitudeSteps)
}

// ParseConfig parses the output of Config.String.
func ParseConfig(s string) (Config, error) {
	var c Config
	if _, err := fmt.Sscanf(s, configFormat, &c.Colors, &c.Sample, &c.Dither, &c.Palette, &c.HoldFactor, &c.AmplitudeSteps); err != nil {
		return Config{}, fmt.Errorf("%w: %q: %v", errBadConfig, s, err)
	}
	return c, c.Validate()
}

// Lofi runs the frame and audio pipelines over files.
type Lofi struct {
	config   Config
	degrader *sound.Degrader
	logger   *log.Logger
}

// New returns a Lofi using config, logging progress to logger.
func New(config Config, logger *log.Logger) (*Lofi, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	d, err := sound.NewDegrader(config.HoldFactor, config.AmplitudeSteps)
	if err != nil {
		return nil, err
	}

	return &Lofi{
		config:   config,
		degrader: d,
		logger:   logger,
	}, nil
}

// Config returns the configuration l was created with.
func (l *Lofi) Config() Config {
	return l.config
}
