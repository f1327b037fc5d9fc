// Package canvas copies and clips pixel regions between tightly packed
// buffers. It knows nothing about color types: a pixel is an opaque run
// of BytesPerPixel bytes.
package canvas

import (
	"errors"
	"image"
)

// Buffer is a row-major pixel grid without padding between rows.
type Buffer struct {
	Pix           []byte
	Width, Height int
	BytesPerPixel int
}

// ErrBadFill is returned when the fill pixel does not match the buffer's
// pixel size.
var ErrBadFill = errors.New("canvas: fill pixel has the wrong size")

// ErrBadSize is returned for a non-positive target size.
var ErrBadSize = errors.New("canvas: target size must be positive")

// Stride is the number of bytes per row.
func (b Buffer) Stride() int { return b.Width * b.BytesPerPixel }

// Bounds returns the pixel rectangle covered by b.
func (b Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// Fill returns a buffer of the given size with every pixel set to fill.
func Fill(size image.Point, bpp int, fill []byte) (Buffer, error) {
	if size.X <= 0 || size.Y <= 0 {
		return Buffer{}, ErrBadSize
	}
	if len(fill) != bpp {
		return Buffer{}, ErrBadFill
	}
	out := Buffer{
		Pix:           make([]byte, size.X*size.Y*bpp),
		Width:         size.X,
		Height:        size.Y,
		BytesPerPixel: bpp,
	}
	// Seed one pixel and keep doubling the filled prefix.
	filled := copy(out.Pix, fill)
	for filled < len(out.Pix) {
		filled += copy(out.Pix[filled:], out.Pix[:filled])
	}
	return out, nil
}

// Resize builds a new size buffer filled with fill and pastes the part
// of rect that lies inside src at offset. Pixel (x, y) of the clipped
// rectangle, measured from its top-left corner, lands at offset+(x, y);
// destinations outside the new buffer are dropped. src is not modified.
func Resize(src Buffer, size, offset image.Point, rect image.Rectangle, fill []byte) (Buffer, error) {
	out, err := Fill(size, src.BytesPerPixel, fill)
	if err != nil {
		return Buffer{}, err
	}
	clip := rect.Canon().Intersect(src.Bounds())
	if clip.Empty() {
		return out, nil
	}

	// Where the clipped rectangle would land, then what of it fits.
	dst := clip.Sub(clip.Min).Add(offset)
	vis := dst.Intersect(out.Bounds())
	if vis.Empty() {
		return out, nil
	}

	bpp := src.BytesPerPixel
	n := vis.Dx() * bpp
	srcX := clip.Min.X + vis.Min.X - dst.Min.X
	srcY := clip.Min.Y + vis.Min.Y - dst.Min.Y
	for row := 0; row < vis.Dy(); row++ {
		so := (srcY+row)*src.Stride() + srcX*bpp
		do := (vis.Min.Y+row)*out.Stride() + vis.Min.X*bpp
		copy(out.Pix[do:do+n], src.Pix[so:so+n])
	}
	return out, nil
}
