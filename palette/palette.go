/*
Package palette builds small color palettes that approximate the color
distribution of a frame.

Builders work directly on tightly packed RGBA buffers as produced by the
frame package. Alpha is ignored; every palette entry is opaque and colors
are compared by squared Euclidean distance in RGB space, the same metric
the dither package quantizes with.
*/
package palette

import (
	"image/color"
	"sort"
)

// MaxColors is the largest palette any builder will produce.
const MaxColors = 256

// Builder creates a palette of at most n colors for the RGBA buffer pix.
// An empty buffer yields an empty palette.
type Builder interface {
	Build(pix []byte, n int) color.Palette
}

// entry is a single distinct color and the number of times it was seen.
type entry struct {
	c     [3]uint8
	count int
}

func key(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// countColors builds a histogram of the RGB values in pix, looking at every
// stride'th pixel. The result is sorted so that it is the same for identical
// input regardless of map ordering.
func countColors(pix []byte, stride int) []entry {
	if stride < 1 {
		stride = 1
	}

	colors := make(map[uint32]int)
	for i := 0; i+3 < len(pix); i += 4 * stride {
		colors[key(pix[i], pix[i+1], pix[i+2])]++
	}

	entries := make([]entry, 0, len(colors))
	for k, n := range colors {
		entries = append(entries, entry{
			c:     [3]uint8{uint8(k >> 16), uint8(k >> 8), uint8(k)},
			count: n,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return key(entries[i].c[0], entries[i].c[1], entries[i].c[2]) < key(entries[j].c[0], entries[j].c[1], entries[j].c[2])
	})

	return entries
}

func uniqueColors(entries []entry) color.Palette {
	p := make(color.Palette, 0, len(entries))
	for _, e := range entries {
		p = append(p, color.RGBA{e.c[0], e.c[1], e.c[2], 0xff})
	}
	return p
}

// dedupe drops any repeated colors, keeping the first occurrence
func dedupe(p color.Palette) color.Palette {
	seen := make(map[color.RGBA]struct{}, len(p))
	out := p[:0]
	for _, c := range p {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		rgba.A = 0xff
		if _, ok := seen[rgba]; ok {
			continue
		}
		seen[rgba] = struct{}{}
		out = append(out, rgba)
	}
	return out
}

func clampColors(n int) int {
	if n > MaxColors {
		return MaxColors
	}
	return n
}
