package lofi

import (
	"io"

	"github.com/bodgit/lofi/frame"
	"github.com/bodgit/lofi/sound"
)

// Renderer is a host render target that draws a frame on demand and can
// then be read back.
type Renderer interface {
	frame.Source

	// Draw renders the next frame
	Draw() error
}

type degradingRenderer struct {
	Renderer
	frames *FramePipeline
}

// WrapRenderer returns a Renderer whose Draw method runs the Draw method of
// r and then passes the finished frame through p before returning. If r
// fails to draw, its error is returned and p is not run.
func WrapRenderer(r Renderer, p *FramePipeline) Renderer {
	return &degradingRenderer{
		Renderer: r,
		frames:   p,
	}
}

func (r *degradingRenderer) Draw() error {
	if err := r.Renderer.Draw(); err != nil {
		return err
	}
	return r.frames.Process(r.Renderer)
}

// WrapDecoder returns a Decoder that degrades every buffer decoded by d
// with deg before handing it back. Decoding errors are returned unchanged.
func WrapDecoder(d sound.Decoder, deg *sound.Degrader) sound.Decoder {
	return sound.DecoderFunc(func(r io.ReadSeeker) (*sound.Buffer, error) {
		b, err := d.Decode(r)
		if err != nil {
			return nil, err
		}
		deg.Degrade(b)
		return b, nil
	})
}
