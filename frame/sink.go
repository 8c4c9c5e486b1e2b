package frame

import (
	"fmt"
	"image"
	"sync"
)

// Surface is a presentable 2D drawing surface.
type Surface interface {
	// Resize changes the dimensions of the surface
	Resize(width, height int) error
	// Blit copies m onto the surface with its top-left corner at p in
	// one operation
	Blit(m *image.NRGBA, p image.Point) error
}

// Sink writes finished frames to a Surface, resizing it whenever the frame
// dimensions change.
type Sink struct {
	surface       Surface
	width, height int
}

// NewSink returns a Sink presenting on s.
func NewSink(s Surface) *Sink {
	return &Sink{surface: s}
}

// Write presents m. The surface is resized first if the dimensions of m
// differ from the previous frame.
func (s *Sink) Write(m *image.NRGBA) error {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if len(m.Pix) != Len(w, h) {
		return fmt.Errorf("%w: got %d bytes for %dx%d", ErrBufferSize, len(m.Pix), w, h)
	}

	if w != s.width || h != s.height {
		if err := s.surface.Resize(w, h); err != nil {
			return err
		}
		s.width, s.height = w, h
	}

	return s.surface.Blit(m, image.Point{})
}

// Canvas is an in-memory, double-buffered Surface. Blits land on a back
// buffer that is swapped to the front under a lock, so Snapshot never sees
// a partially written frame. A Resize only takes effect with the next Blit;
// until then the previous frame stays at the front.
type Canvas struct {
	// wmu serialises writers, mu guards the front buffer
	wmu   sync.Mutex
	mu    sync.Mutex
	size  image.Rectangle
	front *image.NRGBA
	back  *image.NRGBA
}

// NewCanvas returns an empty Canvas.
func NewCanvas() *Canvas {
	return &Canvas{
		front: image.NewNRGBA(image.Rectangle{}),
		back:  image.NewNRGBA(image.Rectangle{}),
	}
}

// Resize implements the Surface interface.
func (c *Canvas) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("frame: invalid canvas size %dx%d", width, height)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.size = image.Rect(0, 0, width, height)
	if c.back.Rect != c.size {
		c.back = image.NewNRGBA(c.size)
	}

	return nil
}

// Blit implements the Surface interface.
func (c *Canvas) Blit(m *image.NRGBA, p image.Point) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.back.Rect != c.size {
		c.back = image.NewNRGBA(c.size)
	}

	// The front buffer is never written while it is at the front so it is
	// safe to read without holding mu. After a resize there is nothing
	// worth keeping.
	if c.front.Rect == c.size {
		copy(c.back.Pix, c.front.Pix)
	} else {
		for i := range c.back.Pix {
			c.back.Pix[i] = 0
		}
	}
	copyRows(c.back, m, p)

	c.mu.Lock()
	c.front, c.back = c.back, c.front
	c.mu.Unlock()

	return nil
}

// Snapshot returns a copy of the most recently presented frame.
func (c *Canvas) Snapshot() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := image.NewNRGBA(c.front.Rect)
	copy(m.Pix, c.front.Pix)

	return m
}

// Bounds returns the size of the most recently presented frame.
func (c *Canvas) Bounds() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.front.Rect
}
