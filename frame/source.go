package frame

import (
	"fmt"
	"image"
	"image/draw"
)

// Source is a render target whose contents can be read back.
type Source interface {
	// Size returns the current drawable dimensions
	Size() (width, height int)
	// ReadPixels fills pix, which is exactly Len(Size()) bytes, with the
	// contents of the target
	ReadPixels(pix []byte) error
}

type bottomUp interface {
	BottomUp() bool
}

// Read reads the current contents of src into buf, growing or shrinking it
// to fit the current dimensions, and returns the buffer along with those
// dimensions. A zero-area source returns an empty buffer and no error.
// Errors from the source are returned unchanged.
func Read(src Source, buf []byte) ([]byte, int, int, error) {
	w, h := src.Size()
	n := Len(w, h)
	if n == 0 {
		return buf[:0], 0, 0, nil
	}

	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	if err := src.ReadPixels(buf); err != nil {
		return buf[:0], 0, 0, err
	}

	if b, ok := src.(bottomUp); ok && b.BottomUp() {
		flip(buf, w*BytesPerPixel)
	}

	return buf, w, h, nil
}

// flip reverses the row order of pix in place
func flip(pix []byte, stride int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, len(pix)-stride; top < bottom; top, bottom = top+stride, bottom-stride {
		copy(tmp, pix[top:top+stride])
		copy(pix[top:top+stride], pix[bottom:bottom+stride])
		copy(pix[bottom:bottom+stride], tmp)
	}
}

// ImageSource is a Source backed by an image.Image. It is how decoded still
// images are fed through the frame pipeline.
type ImageSource struct {
	m image.Image
}

// NewImageSource returns a Source that reads from m.
func NewImageSource(m image.Image) *ImageSource {
	return &ImageSource{m: m}
}

// Size implements the Source interface.
func (s *ImageSource) Size() (int, int) {
	b := s.m.Bounds()
	return b.Dx(), b.Dy()
}

// ReadPixels implements the Source interface. Pixels are written with
// straight, non-premultiplied alpha.
func (s *ImageSource) ReadPixels(pix []byte) error {
	w, h := s.Size()
	if len(pix) != Len(w, h) {
		return fmt.Errorf("%w: got %d bytes for %dx%d", ErrBufferSize, len(pix), w, h)
	}

	dst := &image.NRGBA{
		Pix:    pix,
		Stride: w * BytesPerPixel,
		Rect:   image.Rect(0, 0, w, h),
	}
	b := s.m.Bounds()

	// Anything other than NRGBA passes through color.NRGBAModel
	if m, ok := s.m.(*image.NRGBA); ok {
		copyRows(dst, m, image.Point{})
		return nil
	}
	draw.Draw(dst, dst.Rect, s.m, b.Min, draw.Src)

	return nil
}

// copyRows copies src into dst with the top-left corner of src at p,
// clipped to dst. Bytes are copied as is so alpha is never premultiplied.
func copyRows(dst, src *image.NRGBA, p image.Point) {
	r := src.Rect.Sub(src.Rect.Min).Add(p).Intersect(dst.Rect)
	if r.Empty() {
		return
	}

	sp := src.Rect.Min.Add(r.Min.Sub(p))
	n := r.Dx() * BytesPerPixel
	for y := 0; y < r.Dy(); y++ {
		d := dst.PixOffset(r.Min.X, r.Min.Y+y)
		s := src.PixOffset(sp.X, sp.Y+y)
		copy(dst.Pix[d:d+n], src.Pix[s:s+n])
	}
}
