package palette

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// Quantize is a Builder backed by the go-quantize median cut quantizer.
// Pixels are first reduced to a sorted histogram of distinct colors, so
// identical frames always yield identical palettes, and frames with no more
// distinct colors than requested get exactly those colors back.
type Quantize struct {
	// Sample, if greater than one, only counts every Sample'th pixel
	Sample int
	// Aggregation picks how each median cut bucket becomes a color
	Aggregation quantize.AggregationType
}

// Build implements the Builder interface.
func (q Quantize) Build(pix []byte, n int) color.Palette {
	n = clampColors(n)
	if n <= 0 || len(pix) == 0 {
		return color.Palette{}
	}

	entries := countColors(pix, q.Sample)
	if len(entries) <= n {
		return uniqueColors(entries)
	}

	// Lay the histogram out as a one pixel high image, weighting each
	// pixel by how often its color was seen
	m := image.NewRGBA(image.Rect(0, 0, len(entries), 1))
	for i, e := range entries {
		m.Pix[i*4+0] = e.c[0]
		m.Pix[i*4+1] = e.c[1]
		m.Pix[i*4+2] = e.c[2]
		m.Pix[i*4+3] = 0xff
	}

	mcq := quantize.MedianCutQuantizer{
		Aggregation: q.Aggregation,
		Weighting: func(_ image.Image, x, _ int) uint32 {
			return uint32(entries[x].count)
		},
	}

	return dedupe(mcq.Quantize(make(color.Palette, 0, n), m))
}
