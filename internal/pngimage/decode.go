package pngimage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/AnyUserName/pngkit/internal/filter"
	"github.com/AnyUserName/pngkit/internal/interlace"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog"
)

type decodeConfig struct {
	crc       CRCPolicy
	logger    zerolog.Logger
	maxPixels int64
}

// Option configures decoding.
type Option func(*decodeConfig)

// WithCRCPolicy sets how chunk checksums are verified. The default is
// CRCStrict.
func WithCRCPolicy(p CRCPolicy) Option {
	return func(c *decodeConfig) { c.crc = p }
}

// WithLogger reports dropped, ignored and unknown chunks to l. By
// default nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(c *decodeConfig) { c.logger = l }
}

// WithMaxPixels rejects images whose width times height exceeds n
// before any pixel data is inflated. n <= 0 means no limit.
func WithMaxPixels(n int64) Option {
	return func(c *decodeConfig) { c.maxPixels = n }
}

func newDecodeConfig(opts []Option) *decodeConfig {
	cfg := &decodeConfig{crc: CRCStrict, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Decode reads a whole PNG stream from r.
func Decode(r io.Reader, opts ...Option) (*Image, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(b, opts...)
}

// ReadFile decodes the PNG file at path.
func ReadFile(path string, opts ...Option) (*Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(b, opts...)
}

// DecodeBytes decodes a complete PNG held in memory. Any malformed input
// fails the whole decode; there is no partial result.
func DecodeBytes(b []byte, opts ...Option) (*Image, error) {
	cfg := newDecodeConfig(opts)
	s, err := decodeChunks(b, cfg)
	if err != nil {
		return nil, err
	}
	h := s.header
	meta, err := parseMetadata(h, s)
	if err != nil {
		return nil, err
	}
	if cfg.maxPixels > 0 && int64(h.width)*int64(h.height) > cfg.maxPixels {
		return nil, FormatError(fmt.Sprintf("%dx%d exceeds the %d pixel limit", h.width, h.height, cfg.maxPixels))
	}
	want, ok := imageDataSize(h)
	if !ok {
		return nil, FormatError("image too large")
	}
	raw, err := inflate(s.idat, want, cfg)
	if err != nil {
		return nil, err
	}
	img := &Image{
		width:     h.width,
		height:    h.height,
		depth:     h.depth,
		colorType: h.colorType,
		interlace: h.interlace,
		meta:      meta,
	}
	img.rowBytes = h.width * img.BytesPerPixel()
	img.data, err = readPixels(h, raw)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// imageDataSize is the length of the decompressed IDAT stream: every
// scan row plus its filter tag. ok is false when it does not fit an int.
func imageDataSize(h header) (n int, ok bool) {
	for _, s := range interlace.Passes(h.width, h.height, h.interlace == InterlaceAdam7) {
		row := 1 + packedRowBytes(h, s.Width)
		if s.Height > (math.MaxInt-n)/row {
			return 0, false
		}
		n += s.Height * row
	}
	return n, true
}

// maxTrailing bounds how much surplus decompressed data is read while
// looking for the end of the zlib stream.
const maxTrailing = 1 << 20

func inflate(payload []byte, want int, cfg *decodeConfig) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", FormatError("corrupt image data"), err)
	}
	defer zr.Close()

	// The buffer grows with the data actually inflated, so a header
	// alone cannot force a large allocation.
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, zr, int64(want))
	if err != nil && err != io.EOF && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", FormatError("corrupt image data"), err)
	}
	if n < int64(want) {
		return nil, FormatError("not enough pixel data")
	}
	// Reading to the end verifies the Adler-32 checksum.
	extra, err := io.Copy(io.Discard, io.LimitReader(zr, maxTrailing))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", FormatError("corrupt image data"), err)
	}
	if extra > 0 {
		cfg.logger.Debug().Int64("bytes", extra).Msg("ignoring surplus image data")
	}
	return buf.Bytes(), nil
}

// readPixels defilters each scan of raw and places its unpacked samples
// in a full-resolution buffer.
func readPixels(h header, raw []byte) ([]byte, error) {
	channels := h.colorType.Channels()
	bpp := channels * max(1, h.depth/8)
	stride := h.width * bpp
	out := make([]byte, h.height*stride)
	fbpp := filterBPP(h)
	adam7 := h.interlace == InterlaceAdam7

	for _, s := range interlace.Passes(h.width, h.height, adam7) {
		rowLen := packedRowBytes(h, s.Width)
		cr := make([]byte, rowLen)
		pr := make([]byte, rowLen)

		pass := out
		if adam7 {
			pass = make([]byte, s.Width*s.Height*bpp)
		}
		passStride := s.Width * bpp
		for y := 0; y < s.Height; y++ {
			ft := filter.Type(raw[0])
			copy(cr, raw[1:1+rowLen])
			raw = raw[1+rowLen:]
			if err := filter.Unfilter(ft, cr, pr, fbpp); err != nil {
				return nil, FormatError(err.Error())
			}
			unpackRow(pass[y*passStride:], cr, s.Width*channels, h.depth)
			pr, cr = cr, pr
		}
		if adam7 {
			interlace.Scatter(out, stride, pass, s, bpp)
		}
	}
	return out, nil
}
