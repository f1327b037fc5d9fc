package pngimage

import (
	"image"
	"image/color"
)

// FromImage copies src into a new Image. Gray, Gray16 and Paletted
// sources keep their color model; 64-bit sources become 16-bit RGBA and
// everything else 8-bit RGBA, or RGB when no pixel is translucent.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := src.(type) {
	case *image.Gray:
		m, err := New(w, h, ColorGray, 8, nil)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(m.data[y*m.rowBytes:(y+1)*m.rowBytes], src.Pix[i:])
		}
		return m, nil
	case *image.Gray16:
		m, err := New(w, h, ColorGray, 16, nil)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(m.data[y*m.rowBytes:(y+1)*m.rowBytes], src.Pix[i:])
		}
		return m, nil
	case *image.Paletted:
		return fromPaletted(src)
	case *image.NRGBA64:
		m, err := New(w, h, ColorRGBA, 16, nil)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(m.data[y*m.rowBytes:(y+1)*m.rowBytes], src.Pix[i:])
		}
		return m, nil
	case *image.RGBA64:
		m, err := New(w, h, ColorRGBA, 16, nil)
		if err != nil {
			return nil, err
		}
		o := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBA64Model.Convert(src.At(x, y)).(color.NRGBA64)
				for _, v := range [4]uint16{c.R, c.G, c.B, c.A} {
					m.data[o], m.data[o+1] = uint8(v>>8), uint8(v)
					o += 2
				}
			}
		}
		return m, nil
	}

	opaque := true
	pix := make([]color.NRGBA, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			opaque = opaque && c.A == 0xff
			pix = append(pix, c)
		}
	}
	ct := ColorRGBA
	if opaque {
		ct = ColorRGB
	}
	m, err := New(w, h, ct, 8, nil)
	if err != nil {
		return nil, err
	}
	o := 0
	for _, c := range pix {
		m.data[o], m.data[o+1], m.data[o+2] = c.R, c.G, c.B
		o += 3
		if !opaque {
			m.data[o] = c.A
			o++
		}
	}
	return m, nil
}

func fromPaletted(src *image.Paletted) (*Image, error) {
	if len(src.Palette) == 0 || len(src.Palette) > 256 {
		return nil, EncodeError("palette image needs 1 to 256 palette entries")
	}
	p := make(Palette, len(src.Palette))
	alpha := make([]uint8, len(src.Palette))
	last := -1
	for i, c := range src.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		p[i] = RGB{R: n.R, G: n.G, B: n.B}
		alpha[i] = n.A
		if n.A != 0xff {
			last = i
		}
	}
	b := src.Bounds()
	m, err := New(b.Dx(), b.Dy(), ColorPalette, 8, p)
	if err != nil {
		return nil, err
	}
	if last >= 0 {
		m.meta.trns = &Transparency{Alpha: alpha[:last+1]}
	}
	for y := 0; y < m.height; y++ {
		i := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(m.data[y*m.rowBytes:(y+1)*m.rowBytes], src.Pix[i:])
	}
	return m, nil
}

// NRGBA renders the image with palette and transparency applied.
// Indices missing from the palette render as transparent black.
func (m *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(m.Bounds())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			c, err := m.RGBAAt(x, y)
			if err != nil {
				continue
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
