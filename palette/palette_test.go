package palette

import (
	"image/color"
	"testing"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(n int, c color.RGBA) []byte {
	pix := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		pix = append(pix, c.R, c.G, c.B, c.A)
	}
	return pix
}

// gradient returns a w*h buffer covering a wide range of colors
func gradient(w, h int) []byte {
	pix := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix, uint8(x*255/(w-1)), uint8(y*255/(h-1)), uint8((x+y)*255/(w+h-2)), 0xff)
		}
	}
	return pix
}

var builders = map[string]Builder{
	"mean": Quantize{Aggregation: quantize.Mean},
	"mode": Quantize{Aggregation: quantize.Mode},
}

// squaredError sums the squared RGB distance from every pixel in pix to its
// nearest color in p
func squaredError(pix []byte, p color.Palette) int {
	total := 0
	for i := 0; i+3 < len(pix); i += 4 {
		best := -1
		for _, c := range p {
			rgba := c.(color.RGBA)
			dr := int(pix[i]) - int(rgba.R)
			dg := int(pix[i+1]) - int(rgba.G)
			db := int(pix[i+2]) - int(rgba.B)
			if d := dr*dr + dg*dg + db*db; best < 0 || d < best {
				best = d
			}
		}
		total += best
	}
	return total
}

func TestSolidColor(t *testing.T) {
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			p := b.Build(solid(4, color.RGBA{0xff, 0x00, 0x00, 0xff}), 16)
			assert.Equal(t, color.Palette{color.RGBA{0xff, 0x00, 0x00, 0xff}}, p)
		})
	}
}

func TestFewerColorsThanRequested(t *testing.T) {
	var pix []byte
	for i := 0; i < 10; i++ {
		// Repeat each color a different number of times
		pix = append(pix, solid(i+1, color.RGBA{uint8(i * 20), 0x80, uint8(255 - i*20), 0xff})...)
	}

	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			p := b.Build(pix, 16)
			require.Len(t, p, 10)
			for i := 0; i < 10; i++ {
				assert.Contains(t, p, color.RGBA{uint8(i * 20), 0x80, uint8(255 - i*20), 0xff})
			}
		})
	}
}

func TestAlphaIgnored(t *testing.T) {
	pix := append(solid(2, color.RGBA{0x10, 0x20, 0x30, 0xff}), solid(2, color.RGBA{0x10, 0x20, 0x30, 0x00})...)
	p := Quantize{Aggregation: quantize.Mean}.Build(pix, 16)
	assert.Equal(t, color.Palette{color.RGBA{0x10, 0x20, 0x30, 0xff}}, p)
}

func TestAtMostN(t *testing.T) {
	pix := gradient(64, 48)
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{1, 2, 7, 16, 64} {
				p := b.Build(pix, n)
				assert.NotEmpty(t, p)
				assert.LessOrEqual(t, len(p), n)
			}
		})
	}
}

func TestFillsPalette(t *testing.T) {
	p := Quantize{Aggregation: quantize.Mean}.Build(gradient(64, 48), 16)
	assert.LessOrEqual(t, len(p), 16)
	assert.Greater(t, len(p), 12)
}

func TestDeterministic(t *testing.T) {
	pix := gradient(80, 60)
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			want := b.Build(pix, 16)
			for i := 0; i < 10; i++ {
				dup := append([]byte(nil), pix...)
				assert.Equal(t, want, b.Build(dup, 16))
			}
		})
	}
}

func TestBeatsUniformPalette(t *testing.T) {
	pix := gradient(64, 48)

	// A fixed 4x2x2 grid over the RGB cube
	var uniform color.Palette
	for _, r := range []uint8{0, 85, 170, 255} {
		for _, g := range []uint8{0, 255} {
			for _, b := range []uint8{0, 255} {
				uniform = append(uniform, color.RGBA{r, g, b, 0xff})
			}
		}
	}
	require.Len(t, uniform, 16)

	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			p := b.Build(pix, 16)
			assert.Less(t, squaredError(pix, p), squaredError(pix, uniform))
		})
	}
}

func TestEmpty(t *testing.T) {
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, b.Build(nil, 16))
			assert.Empty(t, b.Build(solid(4, color.RGBA{}), 0))
		})
	}
}

func TestSample(t *testing.T) {
	// Every odd pixel is blue and is never looked at
	var pix []byte
	for i := 0; i < 8; i++ {
		pix = append(pix, solid(1, color.RGBA{0xff, 0x00, 0x00, 0xff})...)
		pix = append(pix, solid(1, color.RGBA{0x00, 0x00, 0xff, 0xff})...)
	}
	p := Quantize{Sample: 2}.Build(pix, 16)
	assert.Equal(t, color.Palette{color.RGBA{0xff, 0x00, 0x00, 0xff}}, p)
}
