/*
Package frame implements the two ends of the frame pipeline: reading a
finished render target into a tightly packed RGBA buffer and presenting a
processed buffer on a 2D surface.

Buffers are row-major with four bytes per pixel in R, G, B, A order and the
first row at the top of the image. Sources that read back bottom-up, as
OpenGL does, advertise it with a BottomUp method and are flipped on read.
*/
package frame

import "errors"

// BytesPerPixel is the size of a single RGBA pixel in a frame buffer.
const BytesPerPixel = 4

// ErrBufferSize is returned when a buffer does not hold exactly
// width*height*BytesPerPixel bytes.
var ErrBufferSize = errors.New("frame: buffer size does not match dimensions")

// Len returns the number of bytes needed to hold a frame of the given size.
func Len(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return width * height * BytesPerPixel
}
