// Package interlace maps between full-resolution pixel grids and the
// reduced images of PNG interlacing.
package interlace

// Pass describes one reduced image: its first pixel is at (X, Y) and it
// samples every DX-th column of every DY-th row.
type Pass struct {
	X, Y, DX, DY int
}

// Adam7 is the seven-pass PNG interlace scheme.
// See https://www.w3.org/TR/PNG/#8Interlace
var Adam7 = [7]Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// Full is the single pass of a non-interlaced image.
var Full = Pass{0, 0, 1, 1}

// Size returns the dimensions of the reduced image for a w×h grid.
// Either value may be zero.
func (p Pass) Size(w, h int) (int, int) {
	pw, ph := 0, 0
	if w > p.X {
		pw = (w - p.X + p.DX - 1) / p.DX
	}
	if h > p.Y {
		ph = (h - p.Y + p.DY - 1) / p.DY
	}
	return pw, ph
}

// A Scan is a non-empty pass together with its reduced dimensions.
type Scan struct {
	Pass
	Index         int
	Width, Height int
}

// Passes lists the scans needed for a w×h image, in stream order.
// Empty Adam7 passes are left out since they contribute no bytes.
func Passes(w, h int, adam7 bool) []Scan {
	if !adam7 {
		return []Scan{{Pass: Full, Width: w, Height: h}}
	}
	scans := make([]Scan, 0, len(Adam7))
	for i, p := range Adam7 {
		pw, ph := p.Size(w, h)
		if pw == 0 || ph == 0 {
			continue
		}
		scans = append(scans, Scan{Pass: p, Index: i, Width: pw, Height: ph})
	}
	return scans
}

// Scatter copies the reduced image src (s.Width×s.Height pixels of bpp
// bytes, tightly packed) into its positions in dst, a full grid with the
// given stride.
func Scatter(dst []byte, stride int, src []byte, s Scan, bpp int) {
	if s.Pass == Full && stride == s.Width*bpp {
		copy(dst, src[:s.Height*stride])
		return
	}
	i := 0
	for row := 0; row < s.Height; row++ {
		o := (s.Y+row*s.DY)*stride + s.X*bpp
		for col := 0; col < s.Width; col++ {
			copy(dst[o:o+bpp], src[i:i+bpp])
			i += bpp
			o += s.DX * bpp
		}
	}
}

// Gather is the inverse of Scatter: it collects the pixels of scan s out
// of the full grid src into dst.
func Gather(dst []byte, src []byte, stride int, s Scan, bpp int) {
	if s.Pass == Full && stride == s.Width*bpp {
		copy(dst, src[:s.Height*stride])
		return
	}
	i := 0
	for row := 0; row < s.Height; row++ {
		o := (s.Y+row*s.DY)*stride + s.X*bpp
		for col := 0; col < s.Width; col++ {
			copy(dst[i:i+bpp], src[o:o+bpp])
			i += bpp
			o += s.DX * bpp
		}
	}
}
