package pngimage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image/color"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

// chunkBytes frames one chunk with a correct checksum.
func chunkBytes(typ string, data []byte) []byte {
	b := make([]byte, 0, 12+len(data))
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, typ...)
	b = append(b, data...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(b[4:]))
}

func buildPNG(chunks ...[]byte) []byte {
	out := []byte(pngHeader)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func ihdrChunk(w, h, depth int, ct ColorType, it InterlaceType) []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:4], uint32(w))
	binary.BigEndian.PutUint32(b[4:8], uint32(h))
	b[8], b[9], b[12] = uint8(depth), uint8(ct), uint8(it)
	return chunkBytes("IHDR", b)
}

// idatChunk deflates already filtered scanlines.
func idatChunk(t *testing.T, scanlines []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(scanlines)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return chunkBytes("IDAT", buf.Bytes())
}

func iendChunk() []byte { return chunkBytes("IEND", nil) }

// chunkTypes lists the chunk types of an encoded stream in order.
func chunkTypes(t *testing.T, b []byte) []string {
	t.Helper()
	r := &chunkReader{data: b, idx: len(pngHeader)}
	var out []string
	for {
		c, err := r.next()
		require.NoError(t, err)
		require.True(t, c.checksumOK(), "checksum of %s", c.typ)
		out = append(out, c.typ)
		if c.typ == "IEND" {
			return out
		}
	}
}

var testPalette = Palette{
	{0, 0, 0},
	{128, 255, 64},
	{64, 128, 255},
	{255, 64, 128},
	{255, 128, 64},
}

// randomImage returns an image of the given model filled with valid
// pseudo-random samples.
func randomImage(t *testing.T, w, h int, ct ColorType, depth int, seed int64) *Image {
	t.Helper()
	var p Palette
	if ct == ColorPalette {
		p = testPalette[:min(len(testPalette), 1<<depth)]
	}
	m, err := New(w, h, ct, depth, p)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range m.data {
		v := byte(rng.Intn(256))
		switch {
		case ct == ColorPalette:
			v %= byte(len(p))
		case depth < 8:
			v &= byte(sampleMask(depth))
		}
		m.data[i] = v
	}
	return m
}

// stdNRGBA converts a color from image/png without the premultiplied
// round trip NRGBAModel applies to 16-bit values.
func stdNRGBA(c color.Color) color.NRGBA {
	if c, ok := c.(color.NRGBA64); ok {
		return color.NRGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: uint8(c.A >> 8)}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// gradient is a 256x256 8-bit RGB image with R=x, G=y and B=128.
func gradient(t *testing.T) *Image {
	t.Helper()
	m, err := New(256, 256, ColorRGB, 8, nil)
	require.NoError(t, err)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			i, err := m.ToIndex(x, y)
			require.NoError(t, err)
			m.data[i], m.data[i+1], m.data[i+2] = byte(x), byte(y), 128
		}
	}
	return m
}
