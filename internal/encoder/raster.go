package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// JPEGEncoder encodes images to JPEG using Go's standard library.
// Transparent pixels are flattened onto the bKGD color, or white.
type JPEGEncoder struct {
	Quality int
}

func (e *JPEGEncoder) Format() string    { return "jpeg" }
func (e *JPEGEncoder) Extension() string { return "jpeg" }
func (e *JPEGEncoder) Available() bool   { return true }

func (e *JPEGEncoder) Encode(img *pngimage.Image) ([]byte, error) {
	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	var buf bytes.Buffer
	buf.Grow(img.Width() * img.Height() / 4)
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Flatten composites the image over its background color.
func Flatten(img *pngimage.Image) image.Image {
	src := img.NRGBA()
	if !img.ColorType().HasAlpha() {
		if _, ok := img.Transparency(); !ok {
			return src
		}
	}
	bg := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if c, ok := img.Background(); ok {
		if q, err := pngimage.Normalize(c, nil, nil); err == nil {
			bg = q
		}
	}
	return imaging.Overlay(imaging.New(src.Rect.Dx(), src.Rect.Dy(), bg), src, image.Point{}, 1)
}

// BMPEncoder writes uncompressed BMP through golang.org/x/image/bmp.
type BMPEncoder struct{}

func (e *BMPEncoder) Format() string    { return "bmp" }
func (e *BMPEncoder) Extension() string { return "bmp" }
func (e *BMPEncoder) Available() bool   { return true }

func (e *BMPEncoder) Encode(img *pngimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, rasterView(img)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TIFFEncoder writes deflate-compressed TIFF with the horizontal
// predictor.
type TIFFEncoder struct{}

func (e *TIFFEncoder) Format() string    { return "tiff" }
func (e *TIFFEncoder) Extension() string { return "tiff" }
func (e *TIFFEncoder) Available() bool   { return true }

func (e *TIFFEncoder) Encode(img *pngimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	if err := tiff.Encode(&buf, rasterView(img), opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rasterView keeps 8-bit gray images gray; everything else is rendered
// to NRGBA.
func rasterView(img *pngimage.Image) image.Image {
	if img.ColorType() == pngimage.ColorGray && img.BitDepth() == 8 {
		if _, ok := img.Transparency(); !ok {
			g := image.NewGray(img.Bounds())
			copy(g.Pix, img.Data())
			return g
		}
	}
	return img.NRGBA()
}
