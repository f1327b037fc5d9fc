package pngimage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/AnyUserName/pngkit/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModels = []struct {
	ct     ColorType
	depths []int
}{
	{ColorGray, []int{1, 2, 4, 8, 16}},
	{ColorRGB, []int{8, 16}},
	{ColorPalette, []int{1, 2, 4, 8}},
	{ColorGrayAlpha, []int{8, 16}},
	{ColorRGBA, []int{8, 16}},
}

func TestEncodeRoundTrip(t *testing.T) {
	adam7 := InterlaceAdam7
	for _, model := range allModels {
		for _, depth := range model.depths {
			for _, laced := range []bool{false, true} {
				name := fmt.Sprintf("%s/%d/adam7=%v", model.ct, depth, laced)
				t.Run(name, func(t *testing.T) {
					src := randomImage(t, 13, 7, model.ct, depth, int64(depth))
					opts := DefaultEncodeOptions()
					if laced {
						opts.Interlace = &adam7
					}
					b, err := src.EncodeWith(opts)
					require.NoError(t, err)

					got, err := DecodeBytes(b)
					require.NoError(t, err)
					assert.Equal(t, src.Data(), got.Data())
					assert.Equal(t, depth, got.BitDepth())
					assert.Equal(t, model.ct, got.ColorType())

					std, err := png.Decode(bytes.NewReader(b))
					require.NoError(t, err)
					for y := 0; y < 7; y++ {
						for x := 0; x < 13; x++ {
							want := stdNRGBA(std.At(x, y))
							q, err := got.RGBAAt(x, y)
							require.NoError(t, err)
							require.Equal(t, want, q, "pixel (%d, %d)", x, y)
						}
					}
				})
			}
		}
	}
}

func TestEncodePaletteDepthOne(t *testing.T) {
	m, err := New(9, 3, ColorPalette, 1, testPalette[:2])
	require.NoError(t, err)
	for i := range m.data {
		m.data[i] = byte(i % 2)
	}
	b, err := m.Encode()
	require.NoError(t, err)
	got, err := DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, m.data, got.Data())
}

func TestEncodeFilterStrategies(t *testing.T) {
	src := randomImage(t, 20, 11, ColorRGBA, 8, 3)
	for _, ft := range []filter.Type{filter.None, filter.Sub, filter.Up, filter.Average, filter.Paeth} {
		t.Run(ft.String(), func(t *testing.T) {
			b, err := src.EncodeWith(EncodeOptions{Filter: filter.Fixed(ft)})
			require.NoError(t, err)
			got, err := DecodeBytes(b)
			require.NoError(t, err)
			assert.Equal(t, src.data, got.Data())
		})
	}
}

func TestEncodeCompressionLevels(t *testing.T) {
	src := gradient(t)
	var sizes []int
	for _, l := range []CompressionLevel{NoCompression, BestSpeed, DefaultCompression, BestCompression, 5} {
		b, err := src.EncodeWith(EncodeOptions{Level: l, Filter: filter.Adaptive})
		require.NoError(t, err)
		got, err := DecodeBytes(b)
		require.NoError(t, err)
		assert.Equal(t, src.data, got.Data())
		sizes = append(sizes, len(b))
	}
	assert.Greater(t, sizes[0], sizes[3])

	_, err := src.EncodeWith(EncodeOptions{Level: 12})
	var ee EncodeError
	assert.ErrorAs(t, err, &ee)
}

func TestEncodeChunkOrder(t *testing.T) {
	m, err := DecodeBytes(buildPNG(
		ihdrChunk(3, 1, 8, ColorPalette, InterlaceNone),
		chunkBytes("gAMA", []byte{0, 0, 0xb1, 0x8f}),
		chunkBytes("PLTE", []byte{0, 0, 0, 1, 1, 1, 2, 2, 2}),
		chunkBytes("tRNS", []byte{0}),
		chunkBytes("bKGD", []byte{1}),
		chunkBytes("pHYs", []byte{0, 0, 0x0b, 0x13, 0, 0, 0x0b, 0x13, 1}),
		chunkBytes("oFFs", []byte{0, 0, 0, 1, 0, 0, 0, 2, 0}),
		chunkBytes("tEXt", []byte("a\x00b")),
		chunkBytes("prIV", []byte{9}),
		idatChunk(t, []byte{0, 0, 1, 2}),
		chunkBytes("tIME", []byte{0x07, 0xe2, 4, 26, 5, 28, 16}),
		chunkBytes("zTXt", []byte("c\x00\x00x")),
		iendChunk(),
	))
	require.NoError(t, err)

	b, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"IHDR", "gAMA", "PLTE", "tRNS", "bKGD", "pHYs", "oFFs", "tEXt",
		"IDAT", "tIME", "zTXt", "IEND",
	}, chunkTypes(t, b))

	got, err := DecodeBytes(b)
	require.NoError(t, err)
	g, _ := got.Gamma()
	assert.InDelta(t, 0.45455, g, 1e-9)
	bg, _ := got.Background()
	assert.Equal(t, RGB{R: 1, G: 1, B: 1}, bg)
	assert.Equal(t, 1, got.OffsetX())
	assert.Equal(t, 2835, got.PixelsPerMeterY())
	tm, _ := got.Time()
	assert.Equal(t, 2018, tm.Year())
	tr, _ := got.Transparency()
	assert.Equal(t, []uint8{0}, tr.Alpha)
}

func TestEncodeSplitsIDAT(t *testing.T) {
	src := randomImage(t, 64, 64, ColorRGB, 8, 9)
	b, err := src.EncodeWith(EncodeOptions{ChunkSize: 1000})
	require.NoError(t, err)

	n := 0
	for _, typ := range chunkTypes(t, b) {
		if typ == "IDAT" {
			n++
		}
	}
	// Random pixels barely compress.
	assert.Greater(t, n, 10)

	got, err := DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, src.data, got.Data())
}

func TestEncodeErrors(t *testing.T) {
	var ee EncodeError

	m, err := New(2, 2, ColorPalette, 8, testPalette)
	require.NoError(t, err)
	m.data[3] = 5
	_, err = m.Encode()
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "(1, 1)")

	g, err := New(2, 1, ColorGray, 4, nil)
	require.NoError(t, err)
	g.data[1] = 16
	_, err = g.Encode()
	assert.ErrorAs(t, err, &ee)

	rgb, err := New(2, 2, ColorRGB, 8, nil)
	require.NoError(t, err)
	_, err = rgb.EncodeWith(EncodeOptions{Filter: filter.Fixed(filter.Type(7))})
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "filter(7)")

	_, err = New(1, 1, ColorRGB, 4, nil)
	assert.ErrorAs(t, err, &ee)
	_, err = New(1, 1, ColorPalette, 8, nil)
	assert.ErrorAs(t, err, &ee)
	var be BoundsError
	_, err = New(0, 3, ColorRGB, 8, nil)
	assert.ErrorAs(t, err, &be)
}

func TestSetTime(t *testing.T) {
	m, err := New(1, 1, ColorGray, 8, nil)
	require.NoError(t, err)
	at := time.Date(2021, 12, 31, 23, 59, 58, 123, time.FixedZone("x", 3600))
	m.SetTime(at)
	b, err := m.Encode()
	require.NoError(t, err)
	got, err := DecodeBytes(b)
	require.NoError(t, err)
	tm, ok := got.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 12, 31, 22, 59, 58, 0, time.UTC), tm)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.png")
	src := gradient(t)
	require.NoError(t, src.WriteFile(path))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src.data, got.Data())

	var buf bytes.Buffer
	n, err := src.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
}

func TestResizeCanvas(t *testing.T) {
	src := gradient(t)
	m, err := New(32, 16, ColorRGB, 8, nil)
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		copy(m.data[y*m.rowBytes:], src.data[y*src.rowBytes:y*src.rowBytes+m.rowBytes])
	}

	fill := RGB{R: 0, G: 0, B: 128}
	err = m.ResizeCanvas(image.Pt(18, 18), image.Pt(10, 10), image.Rect(0, 0, 6, 6), fill)
	require.NoError(t, err)
	assert.Equal(t, 18, m.Width())
	assert.Equal(t, 18, m.Height())
	assert.Equal(t, 18*3, m.RowBytes())
	assert.Len(t, m.Data(), 18*18*3)

	for _, p := range []image.Point{{0, 0}, {9, 9}, {16, 16}, {17, 17}, {17, 0}} {
		c, err := m.At(p.X, p.Y)
		require.NoError(t, err)
		assert.Equal(t, fill, c, "pixel %v", p)
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			c, err := m.At(10+x, 10+y)
			require.NoError(t, err)
			assert.Equal(t, RGB{R: uint8(x), G: uint8(y), B: 128}, c)
		}
	}

	var mismatch *ColorMismatchError
	err = m.ResizeCanvas(image.Pt(4, 4), image.Point{}, m.Bounds(), Gray{Y: 1})
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, ColorRGB, mismatch.Want)
	assert.Equal(t, ColorGray, mismatch.Got)
	assert.Equal(t, 18, m.Width(), "failed resize leaves the image untouched")

	var be BoundsError
	assert.ErrorAs(t, m.ResizeCanvas(image.Pt(0, 4), image.Point{}, m.Bounds(), fill), &be)
}

func TestResizeCanvasClipsRect(t *testing.T) {
	src := gradient(t)
	m, err := New(4, 3, ColorRGB, 8, nil)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		copy(m.data[y*m.rowBytes:], src.data[y*src.rowBytes:y*src.rowBytes+m.rowBytes])
	}

	fill := RGB{R: 0, G: 0, B: 128}
	require.NoError(t, m.ResizeCanvas(image.Pt(18, 18), image.Pt(10, 10), image.Rect(0, 0, 6, 6), fill))
	assert.Equal(t, 18, m.Width())
	assert.Equal(t, 18, m.Height())

	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			c, err := m.At(10+x, 10+y)
			require.NoError(t, err)
			want := fill
			if x < 4 && y < 3 {
				want = RGB{R: uint8(x), G: uint8(y), B: 128}
			}
			assert.Equal(t, want, c, "pixel (%d, %d)", 10+x, 10+y)
		}
	}
}

func TestResizeCanvasSubByte(t *testing.T) {
	m, err := New(3, 2, ColorPalette, 2, testPalette[:4])
	require.NoError(t, err)
	copy(m.data, []byte{1, 2, 3, 3, 2, 1})
	require.NoError(t, m.ResizeCanvas(image.Pt(5, 3), image.Pt(1, 1), m.Bounds(), Index{I: 0}))

	b, err := m.Encode()
	require.NoError(t, err)
	got, err := DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0, 0, 0, 0, 0,
		0, 1, 2, 3, 0,
		0, 3, 2, 1, 0,
	}, got.Data())

	var fe FormatError
	assert.ErrorAs(t, m.ResizeCanvas(image.Pt(2, 2), image.Point{}, m.Bounds(), Index{I: 7}), &fe)
}

func TestFromImage(t *testing.T) {
	t.Run("gray", func(t *testing.T) {
		src := image.NewGray(image.Rect(2, 3, 6, 5))
		src.SetGray(3, 4, color.Gray{Y: 77})
		m, err := FromImage(src)
		require.NoError(t, err)
		assert.Equal(t, ColorGray, m.ColorType())
		assert.Equal(t, 4, m.Width())
		c, err := m.At(1, 1)
		require.NoError(t, err)
		assert.Equal(t, Gray{Y: 77}, c)
	})

	t.Run("paletted", func(t *testing.T) {
		src := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{
			color.NRGBA{R: 1, G: 2, B: 3, A: 0},
			color.NRGBA{R: 4, G: 5, B: 6, A: 255},
		})
		src.SetColorIndex(1, 0, 1)
		m, err := FromImage(src)
		require.NoError(t, err)
		assert.Equal(t, ColorPalette, m.ColorType())
		tr, ok := m.Transparency()
		require.True(t, ok)
		assert.Equal(t, []uint8{0}, tr.Alpha)
		q, err := m.RGBAAt(1, 0)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 4, G: 5, B: 6, A: 255}, q)
	})

	t.Run("opaque-rgba-becomes-rgb", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 2, 2))
		for i := range src.Pix {
			src.Pix[i] = 0xff
		}
		m, err := FromImage(src)
		require.NoError(t, err)
		assert.Equal(t, ColorRGB, m.ColorType())
	})

	t.Run("translucent-nrgba", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		src.SetNRGBA(0, 0, color.NRGBA{R: 9, G: 8, B: 7, A: 6})
		m, err := FromImage(src)
		require.NoError(t, err)
		assert.Equal(t, ColorRGBA, m.ColorType())
		assert.Equal(t, []byte{9, 8, 7, 6}, m.Data())
		assert.Equal(t, src, m.NRGBA())
	})

	t.Run("nrgba64", func(t *testing.T) {
		src := image.NewNRGBA64(image.Rect(0, 0, 1, 1))
		src.SetNRGBA64(0, 0, color.NRGBA64{R: 0x0102, G: 0x0304, B: 0x0506, A: 0x0708})
		m, err := FromImage(src)
		require.NoError(t, err)
		assert.Equal(t, 16, m.BitDepth())
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, m.Data())
	})
}
