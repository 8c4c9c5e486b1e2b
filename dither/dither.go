/*
Package dither maps RGBA frame buffers onto a fixed palette.

Each pixel is replaced by its nearest palette entry under squared Euclidean
distance in RGB space. With error diffusion enabled the quantization error
of each pixel is carried to its unvisited neighbors using the Floyd-Steinberg
kernel:

	        *     7/16
	3/16  5/16    1/16

so the pass must run strictly in raster order. Alpha is never quantized; it
is copied from source to destination unchanged.

Before lookup each channel of the source color plus its accumulated error is
clamped to [0, 255], and the residual that gets diffused is taken from that
clamped color rather than the raw sum, matching image/draw.FloydSteinberg.
Error therefore never builds up beyond what one pixel can represent, at the
cost of diffusing slightly less than a purely unclamped kernel would.
*/
package dither

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrBufferSize is returned when a source or destination buffer does not
// hold exactly width*height*4 bytes.
var ErrBufferSize = errors.New("dither: buffer size does not match dimensions")

// Floyd-Steinberg weights, in sixteenths
const (
	weightRight      = 7
	weightBelowLeft  = 3
	weightBelow      = 5
	weightBelowRight = 1
)

// Quantizer carries the working state for quantizing one frame at a time.
// The error rows are reused between frames but reset at the start of every
// pass. A Quantizer is not safe for concurrent use.
type Quantizer struct {
	diffuse bool

	palette [][3]int32

	// Error rows are padded by one pixel either side so that diffusion off
	// the left and right edges lands in slots that are never read
	cur, next []float32
}

// New returns a Quantizer. If diffuse is false every pixel is simply mapped
// to its nearest palette entry.
func New(diffuse bool) *Quantizer {
	return &Quantizer{diffuse: diffuse}
}

func (q *Quantizer) setPalette(p color.Palette) {
	q.palette = q.palette[:0]
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		q.palette = append(q.palette, [3]int32{int32(r >> 8), int32(g >> 8), int32(b >> 8)})
	}
}

// reset sizes and zeroes the error rows for a frame of the given width
func (q *Quantizer) reset(width int) {
	n := (width + 2) * 3
	if cap(q.cur) < n {
		q.cur = make([]float32, n)
		q.next = make([]float32, n)
	}
	q.cur = q.cur[:n]
	q.next = q.next[:n]
	for i := range q.cur {
		q.cur[i] = 0
		q.next[i] = 0
	}
}

// nearest returns the index of the palette entry closest to c. Ties go to
// the lowest index.
func (q *Quantizer) nearest(r, g, b int32) int {
	best, bestSum := 0, int32(1<<31-1)
	for i, p := range q.palette {
		dr, dg, db := r-p[0], g-p[1], b-p[2]
		if sum := dr*dr + dg*dg + db*db; sum < bestSum {
			best, bestSum = i, sum
			if sum == 0 {
				break
			}
		}
	}
	return best
}

func clamp(v float32) int32 {
	switch {
	case v < 0:
		return 0
	case v > 0xff:
		return 0xff
	}
	return int32(v + 0.5)
}

// Quantize writes the quantized version of src to dst, both width by height
// RGBA buffers, using palette p. With an empty palette it does nothing.
func (q *Quantizer) Quantize(dst, src []byte, width, height int, p color.Palette) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("dither: invalid dimensions %dx%d", width, height)
	}
	n := width * height * 4
	if len(src) != n {
		return fmt.Errorf("%w: source has %d bytes for %dx%d", ErrBufferSize, len(src), width, height)
	}
	if len(dst) != n {
		return fmt.Errorf("%w: destination has %d bytes for %dx%d", ErrBufferSize, len(dst), width, height)
	}
	if len(p) == 0 || n == 0 {
		return nil
	}

	q.setPalette(p)
	q.reset(width)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			e := (x + 1) * 3

			var c [3]int32
			for ch := range c {
				v := float32(src[i+ch])
				if q.diffuse {
					v += q.cur[e+ch]
				}
				c[ch] = clamp(v)
			}

			chosen := q.palette[q.nearest(c[0], c[1], c[2])]
			dst[i+0] = uint8(chosen[0])
			dst[i+1] = uint8(chosen[1])
			dst[i+2] = uint8(chosen[2])
			dst[i+3] = src[i+3]

			if !q.diffuse {
				continue
			}

			for ch := range c {
				residual := float32(c[ch]-chosen[ch]) / 16
				q.cur[e+3+ch] += residual * weightRight
				q.next[e-3+ch] += residual * weightBelowLeft
				q.next[e+ch] += residual * weightBelow
				q.next[e+3+ch] += residual * weightBelowRight
			}
		}

		// Move to the next row, zeroing what will become the row after
		q.cur, q.next = q.next, q.cur
		for i := range q.next {
			q.next[i] = 0
		}
	}

	return nil
}
