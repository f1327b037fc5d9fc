// Package pngimage decodes PNG streams into an addressable pixel buffer,
// re-encodes them, and resizes their canvas.
//
// After decoding, every sample occupies whole bytes: depths 1, 2 and 4
// are unpacked to one byte per sample (values stay in 0..2^depth-1),
// depth 8 is one byte and depth 16 is two big-endian bytes. Pixels are
// stored row-major without padding, in on-disk channel order.
//
// An Image is not safe for concurrent use.
package pngimage

import (
	"image"
	"image/color"
	"time"

	"github.com/AnyUserName/pngkit/internal/canvas"
)

// Image is a decoded PNG: its header, metadata and pixel buffer.
type Image struct {
	width, height int
	depth         int
	colorType     ColorType
	interlace     InterlaceType

	meta metadata

	// len(data) == height*rowBytes between operations.
	data     []byte
	rowBytes int
}

// New returns a zero-filled image. palette is required for ColorPalette
// and ignored otherwise.
func New(width, height int, ct ColorType, depth int, palette Palette) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, boundsErrorf("non-positive dimension %dx%d", width, height)
	}
	if !ct.ValidDepth(depth) {
		return nil, EncodeError(formatDepth(ct, depth))
	}
	img := &Image{
		width:     width,
		height:    height,
		depth:     depth,
		colorType: ct,
	}
	if ct == ColorPalette {
		if len(palette) == 0 || len(palette) > 256 {
			return nil, EncodeError("palette image needs 1 to 256 palette entries")
		}
		img.meta.palette = append(Palette(nil), palette...)
	}
	img.rowBytes = width * img.BytesPerPixel()
	img.data = make([]byte, height*img.rowBytes)
	return img, nil
}

// BitDepth is the IHDR bit depth: 1, 2, 4, 8 or 16.
func (m *Image) BitDepth() int { return m.depth }

// Channels is the number of samples per pixel.
func (m *Image) Channels() int { return m.colorType.Channels() }

func (m *Image) ColorType() ColorType { return m.colorType }

func (m *Image) Width() int { return m.width }

func (m *Image) Height() int { return m.height }

func (m *Image) InterlaceType() InterlaceType { return m.interlace }

// Bounds returns the pixel rectangle of the image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// BytesPerPixel is channels × max(1, depth/8).
func (m *Image) BytesPerPixel() int {
	return m.colorType.Channels() * max(1, m.depth/8)
}

// RowBytes is the length of one row of Data.
func (m *Image) RowBytes() int { return m.rowBytes }

// OffsetX is the oFFs horizontal position in pixels. It is 0 when no
// oFFs chunk is present or when the offset is not expressed in pixels.
func (m *Image) OffsetX() int {
	if m.meta.hasOffs && m.meta.offUnit == OffsetPixel {
		return int(m.meta.offX)
	}
	return 0
}

// OffsetY is the vertical counterpart of OffsetX.
func (m *Image) OffsetY() int {
	if m.meta.hasOffs && m.meta.offUnit == OffsetPixel {
		return int(m.meta.offY)
	}
	return 0
}

// Offset returns the raw oFFs values and unit.
func (m *Image) Offset() (x, y int32, unit uint8, ok bool) {
	return m.meta.offX, m.meta.offY, m.meta.offUnit, m.meta.hasOffs
}

// PixelsPerMeterX is 0 unless a pHYs chunk gives the density per meter.
func (m *Image) PixelsPerMeterX() int {
	if m.meta.hasPhys && m.meta.physUnit == UnitMeter {
		return int(m.meta.physX)
	}
	return 0
}

func (m *Image) PixelsPerMeterY() int {
	if m.meta.hasPhys && m.meta.physUnit == UnitMeter {
		return int(m.meta.physY)
	}
	return 0
}

// Physical returns the raw pHYs values and unit.
func (m *Image) Physical() (x, y uint32, unit uint8, ok bool) {
	return m.meta.physX, m.meta.physY, m.meta.physUnit, m.meta.hasPhys
}

// Palette returns a copy of the palette of a ColorPalette image.
func (m *Image) Palette() (Palette, bool) {
	if m.meta.palette == nil {
		return nil, false
	}
	return append(Palette(nil), m.meta.palette...), true
}

// Transparency returns a copy of the decoded tRNS chunk.
func (m *Image) Transparency() (Transparency, bool) {
	if m.meta.trns == nil {
		return Transparency{}, false
	}
	t := *m.meta.trns
	t.Alpha = append([]uint8(nil), t.Alpha...)
	return t, true
}

// Background is the bKGD color: Gray for gray images, RGB for the rest.
// Palette backgrounds are already resolved through the palette.
func (m *Image) Background() (Color, bool) {
	return m.meta.background, m.meta.background != nil
}

// Gamma is the gAMA value divided by 100000.
func (m *Image) Gamma() (float64, bool) {
	return float64(m.meta.gammaRaw) / 100000, m.meta.hasGamma
}

// Time is the tIME modification time, in UTC.
func (m *Image) Time() (time.Time, bool) {
	return m.meta.modTime, m.meta.hasTime
}

// SetTime records t as the last modification time.
func (m *Image) SetTime(t time.Time) {
	m.meta.modTime, m.meta.hasTime = t.UTC().Truncate(time.Second), true
}

// Chunks returns the unknown ancillary chunks kept from the source.
func (m *Image) Chunks() []Chunk {
	out := make([]Chunk, len(m.meta.unknown))
	for i, c := range m.meta.unknown {
		c.Data = append([]byte(nil), c.Data...)
		out[i] = c
	}
	return out
}

// Data returns a copy of the pixel buffer.
func (m *Image) Data() []byte {
	return append([]byte(nil), m.data...)
}

// ToIndex returns the offset in Data of pixel (x, y).
func (m *Image) ToIndex(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return 0, boundsErrorf("pixel (%d, %d) outside %dx%d", x, y, m.width, m.height)
	}
	return y*m.rowBytes + x*m.BytesPerPixel(), nil
}

// ToXY returns the pixel containing byte index of Data.
func (m *Image) ToXY(index int) (x, y int, err error) {
	if index < 0 || index >= len(m.data) {
		return 0, 0, boundsErrorf("index %d outside buffer of %d bytes", index, len(m.data))
	}
	y = index / m.rowBytes
	x = (index - y*m.rowBytes) / m.BytesPerPixel()
	return x, y, nil
}

// At returns the pixel at (x, y) in the image's own color model.
// Samples are presented as 8-bit values: 16-bit samples keep their high
// byte and gray samples below 8 bits are scaled up. Palette indices are
// returned as stored.
func (m *Image) At(x, y int) (Color, error) {
	i, err := m.ToIndex(x, y)
	if err != nil {
		return nil, err
	}
	return sampleToColor(m.colorType, m.depth, m.data[i:i+m.BytesPerPixel()]), nil
}

// RGBAAt returns the pixel at (x, y) as a non-premultiplied RGBA quad,
// applying the palette and any tRNS transparency.
func (m *Image) RGBAAt(x, y int) (color.NRGBA, error) {
	i, err := m.ToIndex(x, y)
	if err != nil {
		return color.NRGBA{}, err
	}
	pix := m.data[i : i+m.BytesPerPixel()]
	c := sampleToColor(m.colorType, m.depth, pix)
	if m.meta.trns != nil && m.meta.trns.Key != nil {
		// Keys compare against the stored samples, not the 8-bit view.
		q, err := Normalize(c, m.meta.palette, nil)
		if err == nil && m.matchesKey(pix) {
			q.A = 0
		}
		return q, err
	}
	return Normalize(c, m.meta.palette, m.meta.trns)
}

func (m *Image) matchesKey(pix []byte) bool {
	for ch := 0; ch < m.colorType.Channels(); ch++ {
		var v uint16
		if m.depth == 16 {
			v = uint16(pix[2*ch])<<8 | uint16(pix[2*ch+1])
		} else {
			v = uint16(pix[ch])
		}
		if v != m.meta.trns.Raw[ch] {
			return false
		}
	}
	return true
}

// ResizeCanvas replaces the canvas with a size-pixel one filled with
// fill, then copies the part of rect that lies inside the current image
// so that its top-left corner lands at offset. Anything falling outside
// the new canvas is dropped. Only width, height, row bytes and the pixel
// buffer change.
func (m *Image) ResizeCanvas(size, offset image.Point, rect image.Rectangle, fill Color) error {
	if size.X <= 0 || size.Y <= 0 {
		return boundsErrorf("non-positive canvas size %dx%d", size.X, size.Y)
	}
	bpp := m.BytesPerPixel()
	px := make([]byte, bpp)
	if err := colorToSamples(px, m.colorType, m.depth, fill); err != nil {
		return err
	}
	if idx, ok := fill.(Index); ok {
		if _, err := m.meta.palette.Lookup(idx.I); err != nil {
			return err
		}
	}
	src := canvas.Buffer{Pix: m.data, Width: m.width, Height: m.height, BytesPerPixel: bpp}
	out, err := canvas.Resize(src, size, offset, rect, px)
	if err != nil {
		return err
	}
	m.width, m.height = out.Width, out.Height
	m.rowBytes, m.data = out.Stride(), out.Pix
	return nil
}
