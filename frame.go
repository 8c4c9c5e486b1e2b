package lofi

import (
	"image"
	"sync"

	"github.com/bodgit/lofi/dither"
	"github.com/bodgit/lofi/frame"
	"github.com/bodgit/lofi/palette"
)

// FramePipeline reads a frame from a source, builds a palette for it,
// quantizes it and presents the result on a surface. Nothing carries over
// from one frame to the next apart from the working read buffer, so every
// frame gets its own palette.
type FramePipeline struct {
	// At most one frame is in flight at a time
	mu sync.Mutex

	colors    int
	builder   palette.Builder
	quantizer *dither.Quantizer
	sink      *frame.Sink

	buf []byte
}

// NewFramePipeline returns a FramePipeline presenting frames on surface.
func NewFramePipeline(config Config, surface frame.Surface) (*FramePipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b, err := config.builder()
	if err != nil {
		return nil, err
	}

	return &FramePipeline{
		colors:    config.Colors,
		builder:   b,
		quantizer: dither.New(config.Dither),
		sink:      frame.NewSink(surface),
	}, nil
}

// Process runs one frame through the pipeline. A zero-area source, or one
// that yields an empty palette, is skipped without touching the surface.
// Errors from the source or surface are returned as is.
func (p *FramePipeline) Process(src frame.Source) error {
	_, err := p.process(src)
	return err
}

// process returns whether a frame was presented
func (p *FramePipeline) process(src frame.Source) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pix, w, h, err := frame.Read(src, p.buf)
	p.buf = pix
	if err != nil {
		return false, err
	}
	if len(pix) == 0 {
		return false, nil
	}

	pal := p.builder.Build(pix, p.colors)
	if len(pal) == 0 {
		return false, nil
	}

	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	if err := p.quantizer.Quantize(m.Pix, pix, w, h, pal); err != nil {
		return false, err
	}

	if err := p.sink.Write(m); err != nil {
		return false, err
	}

	return true, nil
}
