package lofi

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/lofi/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer draws an image chosen by the test
type fakeRenderer struct {
	next  image.Image
	cur   image.Image
	draws int
	err   error
}

func (r *fakeRenderer) Draw() error {
	if r.err != nil {
		return r.err
	}
	r.draws++
	r.cur = r.next
	return nil
}

func (r *fakeRenderer) Size() (int, int) {
	if r.cur == nil {
		return 0, 0
	}
	return frame.NewImageSource(r.cur).Size()
}

func (r *fakeRenderer) ReadPixels(pix []byte) error {
	return frame.NewImageSource(r.cur).ReadPixels(pix)
}

type countingSurface struct {
	*frame.Canvas
	resizes, blits int
}

func newCountingSurface() *countingSurface {
	return &countingSurface{Canvas: frame.NewCanvas()}
}

func (s *countingSurface) Resize(w, h int) error {
	s.resizes++
	return s.Canvas.Resize(w, h)
}

func (s *countingSurface) Blit(m *image.NRGBA, p image.Point) error {
	s.blits++
	return s.Canvas.Blit(m, p)
}

func fill(r image.Rectangle, c color.Color) *image.NRGBA {
	m := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, c)
		}
	}
	return m
}

func landscape(w, h int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.NRGBA{uint8(x * 7), uint8(y * 11), uint8((x * y) % 256), uint8(255 - x%2)})
		}
	}
	return m
}

func TestFramePipelineSolidRed(t *testing.T) {
	surface := newCountingSurface()
	p, err := NewFramePipeline(DefaultConfig(), surface)
	require.NoError(t, err)

	red := fill(image.Rect(0, 0, 2, 2), color.RGBA{0xff, 0x00, 0x00, 0xff})
	require.NoError(t, p.Process(frame.NewImageSource(red)))

	assert.Equal(t, []byte{
		0xff, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0xff,
		0xff, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0xff,
	}, surface.Snapshot().Pix)
	assert.Equal(t, 1, surface.resizes)
	assert.Equal(t, 1, surface.blits)
}

func TestFramePipelineEmptyFrame(t *testing.T) {
	surface := newCountingSurface()
	p, err := NewFramePipeline(DefaultConfig(), surface)
	require.NoError(t, err)

	require.NoError(t, p.Process(frame.NewImageSource(image.NewNRGBA(image.Rectangle{}))))
	assert.Zero(t, surface.resizes)
	assert.Zero(t, surface.blits)
}

func TestFramePipelineProperties(t *testing.T) {
	for _, name := range []string{PaletteMean, PaletteMode} {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			config.Palette = name

			surface := newCountingSurface()
			p, err := NewFramePipeline(config, surface)
			require.NoError(t, err)

			src := landscape(37, 23)
			require.NoError(t, p.Process(frame.NewImageSource(src)))
			out := surface.Snapshot()

			colors := make(map[[3]uint8]struct{})
			for i := 0; i < len(out.Pix); i += 4 {
				colors[[3]uint8{out.Pix[i], out.Pix[i+1], out.Pix[i+2]}] = struct{}{}
				// Alpha passes through untouched
				require.Equal(t, src.Pix[i+3], out.Pix[i+3])
			}
			assert.LessOrEqual(t, len(colors), config.Colors)
		})
	}
}

func TestFramePipelineTranslucent(t *testing.T) {
	config := DefaultConfig()
	config.Colors = 1

	surface := newCountingSurface()
	p, err := NewFramePipeline(config, surface)
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Pix = []byte{
		0xc8, 0x00, 0x00, 0xff,
		0xff, 0x00, 0x00, 0x64,
	}
	require.NoError(t, p.Process(frame.NewImageSource(src)))

	// Both pixels map to the single palette entry whatever their alpha
	out := surface.Snapshot().Pix
	assert.Equal(t, out[0:3], out[4:7])
	assert.Equal(t, byte(0xff), out[3])
	assert.Equal(t, byte(0x64), out[7])
}

func TestFramePipelineDeterministic(t *testing.T) {
	src := landscape(50, 30)

	var want []byte
	for i := 0; i < 3; i++ {
		surface := newCountingSurface()
		p, err := NewFramePipeline(DefaultConfig(), surface)
		require.NoError(t, err)

		// Reprocessing through the same pipeline gives the same frame
		for j := 0; j < 2; j++ {
			require.NoError(t, p.Process(frame.NewImageSource(src)))
			got := surface.Snapshot().Pix
			if want == nil {
				want = got
			}
			assert.Equal(t, want, got)
		}
	}
}

func TestFramePipelineResize(t *testing.T) {
	surface := newCountingSurface()
	p, err := NewFramePipeline(DefaultConfig(), surface)
	require.NoError(t, err)

	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 4, 4),
		image.Rect(0, 0, 4, 4),
		image.Rect(0, 0, 6, 2),
		image.Rect(0, 0, 2, 6),
		image.Rect(0, 0, 2, 6),
	} {
		require.NoError(t, p.Process(frame.NewImageSource(landscape(r.Dx(), r.Dy()))))
		assert.Equal(t, r, surface.Bounds())
	}
	assert.Equal(t, 3, surface.resizes)
	assert.Equal(t, 5, surface.blits)
}

func TestWrapRenderer(t *testing.T) {
	surface := newCountingSurface()
	p, err := NewFramePipeline(DefaultConfig(), surface)
	require.NoError(t, err)

	host := &fakeRenderer{next: fill(image.Rect(0, 0, 3, 3), color.RGBA{0x00, 0x00, 0xff, 0xff})}
	r := WrapRenderer(host, p)

	require.NoError(t, r.Draw())
	assert.Equal(t, 1, host.draws)
	assert.Equal(t, 1, surface.blits)
	assert.Equal(t, image.Rect(0, 0, 3, 3), surface.Bounds())

	w, h := r.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 3, h)

	// The frame drawn by the host is the one presented
	host.next = fill(image.Rect(0, 0, 3, 3), color.RGBA{0x00, 0xff, 0x00, 0xff})
	require.NoError(t, r.Draw())
	assert.Equal(t, []byte{0x00, 0xff, 0x00, 0xff}, surface.Snapshot().Pix[:4])

	// Draw failures are returned as is and nothing is presented
	host.err = errors.New("lost context")
	assert.Equal(t, host.err, r.Draw())
	assert.Equal(t, 2, surface.blits)
}
