package pngimage

import (
	"fmt"
	"image/color"
)

// ColorType is the IHDR color type. The values are the PNG wire codes.
type ColorType uint8

const (
	ColorGray      ColorType = 0
	ColorRGB       ColorType = 2
	ColorPalette   ColorType = 3
	ColorGrayAlpha ColorType = 4
	ColorRGBA      ColorType = 6
)

func (ct ColorType) String() string {
	switch ct {
	case ColorGray:
		return "gray"
	case ColorRGB:
		return "rgb"
	case ColorPalette:
		return "palette"
	case ColorGrayAlpha:
		return "gray-alpha"
	case ColorRGBA:
		return "rgb-alpha"
	}
	return fmt.Sprintf("unknown(%d)", uint8(ct))
}

// Channels is the number of samples per pixel. A palette pixel is a
// single index sample.
func (ct ColorType) Channels() int {
	switch ct {
	case ColorGray, ColorPalette:
		return 1
	case ColorGrayAlpha:
		return 2
	case ColorRGB:
		return 3
	case ColorRGBA:
		return 4
	}
	return 0
}

// HasAlpha reports whether pixels carry an alpha sample.
func (ct ColorType) HasAlpha() bool {
	return ct == ColorGrayAlpha || ct == ColorRGBA
}

// ValidDepth reports whether depth is allowed for ct.
func (ct ColorType) ValidDepth(depth int) bool {
	switch ct {
	case ColorGray:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ColorPalette:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ColorRGB, ColorGrayAlpha, ColorRGBA:
		return depth == 8 || depth == 16
	}
	return false
}

// InterlaceType is the IHDR interlace method.
type InterlaceType uint8

const (
	InterlaceNone  InterlaceType = 0
	InterlaceAdam7 InterlaceType = 1
)

func (it InterlaceType) String() string {
	switch it {
	case InterlaceNone:
		return "none"
	case InterlaceAdam7:
		return "adam7"
	}
	return fmt.Sprintf("unknown(%d)", uint8(it))
}

// Color is a pixel value in one of the five PNG color models. The set
// of implementations is closed: Gray, GrayAlpha, Index, RGB and RGBA.
type Color interface {
	// ColorType names the image color type this value belongs to.
	ColorType() ColorType
	isColor()
}

type Gray struct{ Y uint8 }

type GrayAlpha struct{ Y, A uint8 }

// Index is a palette index.
type Index struct{ I uint8 }

type RGB struct{ R, G, B uint8 }

type RGBA struct{ R, G, B, A uint8 }

func (Gray) ColorType() ColorType      { return ColorGray }
func (GrayAlpha) ColorType() ColorType { return ColorGrayAlpha }
func (Index) ColorType() ColorType     { return ColorPalette }
func (RGB) ColorType() ColorType       { return ColorRGB }
func (RGBA) ColorType() ColorType      { return ColorRGBA }

func (Gray) isColor()      {}
func (GrayAlpha) isColor() {}
func (Index) isColor()     {}
func (RGB) isColor()       {}
func (RGBA) isColor()      {}

// Palette maps indices to colors, in PLTE order.
type Palette []RGB

// Lookup resolves i, failing for an index the palette does not contain.
func (p Palette) Lookup(i uint8) (RGB, error) {
	if int(i) >= len(p) {
		return RGB{}, FormatError(fmt.Sprintf("palette index %d out of range (%d entries)", i, len(p)))
	}
	return p[i], nil
}

// Transparency holds a decoded tRNS chunk.
type Transparency struct {
	// Alpha is the per-index alpha of palette images. Indices past its
	// end are opaque.
	Alpha []uint8
	// Key is the fully transparent color of Gray and RGB images, in the
	// same 8-bit presentation At uses, and Raw its sample values as
	// stored.
	Key Color
	Raw [3]uint16
}

// Normalize converts c to a non-premultiplied RGBA quad. Missing alpha
// becomes 255. Index values resolve through p and the alpha table of t;
// Gray and RGB values equal to the tRNS key become fully transparent.
// t may be nil.
func Normalize(c Color, p Palette, t *Transparency) (color.NRGBA, error) {
	switch c := c.(type) {
	case Gray:
		a := uint8(0xff)
		if t != nil && t.Key == c {
			a = 0
		}
		return color.NRGBA{R: c.Y, G: c.Y, B: c.Y, A: a}, nil
	case GrayAlpha:
		return color.NRGBA{R: c.Y, G: c.Y, B: c.Y, A: c.A}, nil
	case Index:
		rgb, err := p.Lookup(c.I)
		if err != nil {
			return color.NRGBA{}, err
		}
		a := uint8(0xff)
		if t != nil && int(c.I) < len(t.Alpha) {
			a = t.Alpha[c.I]
		}
		return color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: a}, nil
	case RGB:
		a := uint8(0xff)
		if t != nil && t.Key == c {
			a = 0
		}
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}, nil
	case RGBA:
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("png: unknown color %T", c)
}

// scaleUp maps a sample of the given depth onto 0..255. Sixteen-bit
// samples keep their high byte.
func scaleUp(v uint16, depth int) uint8 {
	switch depth {
	case 1:
		return uint8(v) * 0xff
	case 2:
		return uint8(v) * 0x55
	case 4:
		return uint8(v) * 0x11
	case 16:
		return uint8(v >> 8)
	}
	return uint8(v)
}

// scaleDown is the inverse of scaleUp for depths below 8; at depth 16 the
// byte is replicated into both halves.
func scaleDown(v uint8, depth int) uint16 {
	switch depth {
	case 1, 2, 4:
		return uint16(v >> (8 - depth))
	case 16:
		return uint16(v)<<8 | uint16(v)
	}
	return uint16(v)
}

// sampleToColor builds the Color of one pixel from its unpacked samples.
// pix holds channels×(1 or 2) bytes in on-disk channel order.
func sampleToColor(ct ColorType, depth int, pix []byte) Color {
	s := func(i int) uint8 {
		if depth == 16 {
			return pix[2*i]
		}
		return scaleUp(uint16(pix[i]), depth)
	}
	switch ct {
	case ColorGray:
		return Gray{Y: s(0)}
	case ColorGrayAlpha:
		return GrayAlpha{Y: s(0), A: s(1)}
	case ColorPalette:
		return Index{I: pix[0]}
	case ColorRGB:
		return RGB{R: s(0), G: s(1), B: s(2)}
	case ColorRGBA:
		return RGBA{R: s(0), G: s(1), B: s(2), A: s(3)}
	}
	return nil
}

// colorToSamples is the inverse of sampleToColor, writing into dst.
func colorToSamples(dst []byte, ct ColorType, depth int, c Color) error {
	if c == nil || c.ColorType() != ct {
		got := ColorType(0xff)
		if c != nil {
			got = c.ColorType()
		}
		return &ColorMismatchError{Want: ct, Got: got}
	}
	var samples [4]uint8
	n := 0
	switch c := c.(type) {
	case Gray:
		samples[0], n = c.Y, 1
	case GrayAlpha:
		samples[0], samples[1], n = c.Y, c.A, 2
	case Index:
		dst[0] = c.I
		return nil
	case RGB:
		samples[0], samples[1], samples[2], n = c.R, c.G, c.B, 3
	case RGBA:
		samples, n = [4]uint8{c.R, c.G, c.B, c.A}, 4
	}
	for i := 0; i < n; i++ {
		v := scaleDown(samples[i], depth)
		if depth == 16 {
			dst[2*i], dst[2*i+1] = uint8(v>>8), uint8(v)
		} else {
			dst[i] = uint8(v)
		}
	}
	return nil
}
