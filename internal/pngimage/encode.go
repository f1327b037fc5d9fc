package pngimage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/AnyUserName/pngkit/internal/filter"
	"github.com/AnyUserName/pngkit/internal/interlace"
	"github.com/klauspost/compress/zlib"
)

const defaultChunkSize = 1 << 16

// CompressionLevel selects the zlib effort. Values 1 through 9 are passed
// to zlib as is.
type CompressionLevel int

const (
	DefaultCompression CompressionLevel = 0
	NoCompression      CompressionLevel = -1
	BestSpeed          CompressionLevel = -2
	BestCompression    CompressionLevel = -3
)

func (l CompressionLevel) zlibLevel() (int, error) {
	switch {
	case l == DefaultCompression:
		return zlib.DefaultCompression, nil
	case l == NoCompression:
		return zlib.NoCompression, nil
	case l == BestSpeed:
		return zlib.BestSpeed, nil
	case l == BestCompression:
		return zlib.BestCompression, nil
	case l >= 1 && l <= 9:
		return int(l), nil
	}
	return 0, EncodeError(fmt.Sprintf("compression level %d", int(l)))
}

// EncodeOptions controls how an image is written. The zero value writes
// unfiltered rows at the default compression level.
type EncodeOptions struct {
	Level  CompressionLevel
	Filter filter.Strategy
	// Interlace overrides the image's own interlace type when set.
	Interlace *InterlaceType
	// ChunkSize caps the payload of each IDAT chunk. Zero means 64 KiB.
	ChunkSize int
}

// DefaultEncodeOptions uses adaptive filtering at the default level.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Filter: filter.Adaptive}
}

// Encode writes the image as a PNG stream with DefaultEncodeOptions.
func (m *Image) Encode() ([]byte, error) {
	return m.EncodeWith(DefaultEncodeOptions())
}

// EncodeWith writes the image as a PNG stream.
func (m *Image) EncodeWith(opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(m.data)/2 + 1024)
	if err := m.encode(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo implements io.WriterTo with DefaultEncodeOptions.
func (m *Image) WriteTo(w io.Writer) (int64, error) {
	b, err := m.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// WriteFile encodes the image with DefaultEncodeOptions and stores it
// at path.
func (m *Image) WriteFile(path string) error {
	b, err := m.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (m *Image) encode(w io.Writer, opts EncodeOptions) error {
	if err := m.checkEncodable(); err != nil {
		return err
	}
	it := m.interlace
	if opts.Interlace != nil {
		it = *opts.Interlace
	}
	if it != InterlaceNone && it != InterlaceAdam7 {
		return EncodeError("interlace method " + it.String())
	}
	level, err := opts.Level.zlibLevel()
	if err != nil {
		return err
	}
	strategy := opts.Filter
	if !strategy.Valid() {
		return EncodeError("filter strategy " + strategy.String())
	}
	// Filtering rarely helps indexed or sub-byte data.
	if strategy.IsAdaptive() && (m.colorType == ColorPalette || m.depth < 8) {
		strategy = filter.Fixed(filter.None)
	}
	payload, err := m.compress(it, strategy, level)
	if err != nil {
		return err
	}

	cw := &chunkWriter{w: w}
	cw.header()
	cw.chunk("IHDR", m.ihdr(it))
	for _, c := range m.meta.beforePLTE() {
		cw.chunk(c.typ, c.data)
	}
	if m.colorType == ColorPalette {
		cw.chunk("PLTE", m.plte())
	}
	for _, c := range m.meta.afterPLTE(m.colorType) {
		cw.chunk(c.typ, c.data)
	}
	m.copyUnknown(cw, false)
	cw.idat(payload, opts.ChunkSize)
	for _, c := range m.meta.afterIDAT() {
		cw.chunk(c.typ, c.data)
	}
	m.copyUnknown(cw, true)
	cw.chunk("IEND", nil)
	return cw.err
}

// checkEncodable rejects images whose buffer cannot be represented.
func (m *Image) checkEncodable() error {
	if !m.colorType.ValidDepth(m.depth) {
		return EncodeError(formatDepth(m.colorType, m.depth))
	}
	if m.width <= 0 || m.height <= 0 {
		return EncodeError(fmt.Sprintf("non-positive dimension %dx%d", m.width, m.height))
	}
	if m.rowBytes != m.width*m.BytesPerPixel() || len(m.data) != m.height*m.rowBytes {
		return EncodeError("pixel buffer does not match dimensions")
	}
	if m.colorType == ColorPalette {
		n := len(m.meta.palette)
		if n == 0 || n > 256 {
			return EncodeError("palette image needs 1 to 256 palette entries")
		}
		if n > 1<<m.depth {
			return EncodeError(fmt.Sprintf("%d palette entries exceed bit depth %d", n, m.depth))
		}
		for i, v := range m.data {
			if int(v) >= n {
				x, y, _ := m.ToXY(i)
				return EncodeError(fmt.Sprintf("palette index %d at (%d, %d) out of range", v, x, y))
			}
		}
	}
	if m.depth < 8 {
		mask := byte(sampleMask(m.depth))
		for i, v := range m.data {
			if v&^mask != 0 {
				x, y, _ := m.ToXY(i)
				return EncodeError(fmt.Sprintf("sample %d at (%d, %d) exceeds bit depth %d", v, x, y, m.depth))
			}
		}
	}
	return nil
}

func (m *Image) ihdr(it InterlaceType) []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:4], uint32(m.width))
	binary.BigEndian.PutUint32(b[4:8], uint32(m.height))
	b[8] = uint8(m.depth)
	b[9] = uint8(m.colorType)
	b[10] = 0 // compression method
	b[11] = 0 // filter method
	b[12] = uint8(it)
	return b
}

func (m *Image) plte() []byte {
	b := make([]byte, 0, 3*len(m.meta.palette))
	for _, e := range m.meta.palette {
		b = append(b, e.R, e.G, e.B)
	}
	return b
}

func (m *Image) copyUnknown(cw *chunkWriter, afterIDAT bool) {
	for _, c := range m.meta.unknown {
		if c.SafeToCopy() && c.AfterIDAT == afterIDAT {
			cw.chunk(c.Type, c.Data)
		}
	}
}

// compress filters every scan row and deflates the result into one
// zlib stream.
func (m *Image) compress(it InterlaceType, strategy filter.Strategy, level int) ([]byte, error) {
	h := header{
		width:     m.width,
		height:    m.height,
		depth:     m.depth,
		colorType: m.colorType,
		interlace: it,
	}
	channels := m.colorType.Channels()
	bpp := m.BytesPerPixel()
	fbpp := filterBPP(h)
	adam7 := it == InterlaceAdam7

	var zbuf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&zbuf, level)
	if err != nil {
		return nil, err
	}
	for _, s := range interlace.Passes(m.width, m.height, adam7) {
		rowLen := packedRowBytes(h, s.Width)
		pass := m.data
		if adam7 {
			pass = make([]byte, s.Width*s.Height*bpp)
			interlace.Gather(pass, m.data, m.rowBytes, s, bpp)
		}
		passStride := s.Width * bpp

		rf := filter.NewRowFilter(strategy, fbpp, rowLen)
		cr := make([]byte, rowLen)
		pr := make([]byte, rowLen)
		line := make([]byte, 1+rowLen)
		for y := 0; y < s.Height; y++ {
			packRow(cr, pass[y*passStride:], s.Width*channels, m.depth)
			ft, filtered := rf.Row(cr, pr)
			line[0] = byte(ft)
			copy(line[1:], filtered)
			if _, err := zw.Write(line); err != nil {
				return nil, err
			}
			pr, cr = cr, pr
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return zbuf.Bytes(), nil
}
