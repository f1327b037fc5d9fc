package pngimage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

// chunkKind is the closed set of chunk types the codec understands.
// Everything else is kindOther and is either kept opaquely (ancillary)
// or rejected (critical).
type chunkKind int

const (
	kindOther chunkKind = iota
	kindIHDR
	kindPLTE
	kindIDAT
	kindIEND
	kindBKGD
	kindGAMA
	kindTIME
	kindPHYS
	kindTRNS
	kindOFFS
)

var kindNames = [...]string{
	kindOther: "",
	kindIHDR:  "IHDR",
	kindPLTE:  "PLTE",
	kindIDAT:  "IDAT",
	kindIEND:  "IEND",
	kindBKGD:  "bKGD",
	kindGAMA:  "gAMA",
	kindTIME:  "tIME",
	kindPHYS:  "pHYs",
	kindTRNS:  "tRNS",
	kindOFFS:  "oFFs",
}

func kindOf(typ string) chunkKind {
	switch typ {
	case "IHDR":
		return kindIHDR
	case "PLTE":
		return kindPLTE
	case "IDAT":
		return kindIDAT
	case "IEND":
		return kindIEND
	case "bKGD":
		return kindBKGD
	case "gAMA":
		return kindGAMA
	case "tIME":
		return kindTIME
	case "pHYs":
		return kindPHYS
	case "tRNS":
		return kindTRNS
	case "oFFs":
		return kindOFFS
	}
	return kindOther
}

func (k chunkKind) String() string { return kindNames[k] }

// Decoding stage. IHDR comes first, PLTE (if any) before the first IDAT,
// IDAT chunks are consecutive and IEND is last.
// https://www.w3.org/TR/PNG/#5ChunkOrdering
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenPLTE
	dsSeenIDAT
	dsSeenIEND
)

// CRCPolicy controls how chunk checksums are verified on decode.
type CRCPolicy int

const (
	// CRCStrict rejects any chunk with a bad checksum.
	CRCStrict CRCPolicy = iota
	// CRCCriticalOnly rejects critical chunks with a bad checksum and
	// drops ancillary ones.
	CRCCriticalOnly
	// CRCIgnore does not look at checksums.
	CRCIgnore
)

func (p CRCPolicy) String() string {
	switch p {
	case CRCStrict:
		return "strict"
	case CRCCriticalOnly:
		return "critical-only"
	case CRCIgnore:
		return "ignore"
	}
	return fmt.Sprintf("CRCPolicy(%d)", int(p))
}

// Chunk is an ancillary chunk the codec does not interpret. It is kept
// with the image and, when safe to copy, written back on encode.
type Chunk struct {
	Type string
	Data []byte
	// AfterIDAT records whether the chunk followed the image data.
	AfterIDAT bool
}

// Critical reports whether the type's first letter is uppercase.
func (c Chunk) Critical() bool { return isCritical(c.Type) }

// SafeToCopy reports whether the type's fourth letter is lowercase.
func (c Chunk) SafeToCopy() bool { return len(c.Type) == 4 && c.Type[3]&0x20 != 0 }

func isCritical(typ string) bool { return typ[0]&0x20 == 0 }

func validChunkType(typ []byte) bool {
	for _, c := range typ {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// header holds the IHDR fields.
type header struct {
	width, height int
	depth         int
	colorType     ColorType
	interlace     InterlaceType
}

// stream is the result of unframing a PNG: the header, the raw PLTE
// payload, the concatenated IDAT payload and the ancillary chunks.
type stream struct {
	header    header
	plte      []byte
	idat      []byte
	ancillary map[chunkKind][]byte
	unknown   []Chunk
}

// chunkReader walks the chunks of an in-memory PNG.
type chunkReader struct {
	data []byte
	idx  int
}

type rawChunk struct {
	typ  string
	data []byte
	crc  uint32
}

func (r *chunkReader) next() (rawChunk, error) {
	rest := len(r.data) - r.idx
	if rest == 0 {
		return rawChunk{}, FormatError("missing IEND chunk")
	}
	if rest < 12 {
		return rawChunk{}, FormatError("truncated chunk")
	}
	b := r.data[r.idx:]
	length := binary.BigEndian.Uint32(b[:4])
	if length > 0x7fffffff {
		return rawChunk{}, FormatError(fmt.Sprintf("bad chunk length: %d", length))
	}
	if int64(length) > int64(rest-12) {
		return rawChunk{}, FormatError(fmt.Sprintf("truncated %q chunk", b[4:8]))
	}
	if !validChunkType(b[4:8]) {
		return rawChunk{}, FormatError(fmt.Sprintf("bad chunk type %q", b[4:8]))
	}
	n := int(length)
	c := rawChunk{
		typ:  string(b[4:8]),
		data: b[8 : 8+n],
		crc:  binary.BigEndian.Uint32(b[8+n : 12+n]),
	}
	r.idx += 12 + n
	return c, nil
}

func (c rawChunk) checksumOK() bool {
	crc := crc32.NewIEEE()
	io.WriteString(crc, c.typ)
	crc.Write(c.data)
	return crc.Sum32() == c.crc
}

// decodeChunks unframes a PNG stream.
func decodeChunks(b []byte, cfg *decodeConfig) (*stream, error) {
	if len(b) < len(pngHeader) || string(b[:len(pngHeader)]) != pngHeader {
		return nil, FormatError("not a PNG file")
	}
	s := &stream{ancillary: make(map[chunkKind][]byte)}
	r := &chunkReader{data: b, idx: len(pngHeader)}
	log := cfg.logger

	stage := dsStart
	last := kindOther
	for stage != dsSeenIEND {
		c, err := r.next()
		if err != nil {
			return nil, err
		}
		kind := kindOf(c.typ)
		critical := isCritical(c.typ)

		if cfg.crc != CRCIgnore && !c.checksumOK() {
			if cfg.crc == CRCStrict || critical {
				return nil, FormatError(fmt.Sprintf("invalid checksum in %s chunk", c.typ))
			}
			log.Warn().Str("chunk", c.typ).Msg("dropping ancillary chunk with bad checksum")
			last = kind
			continue
		}
		if kind != kindIHDR && stage == dsStart {
			return nil, FormatError("IHDR must be the first chunk, found " + c.typ)
		}

		switch kind {
		case kindIHDR:
			if stage != dsStart {
				return nil, FormatError("duplicate IHDR chunk")
			}
			h, err := parseIHDR(c.data)
			if err != nil {
				return nil, err
			}
			s.header = h
			stage = dsSeenIHDR
		case kindPLTE:
			if stage != dsSeenIHDR {
				return nil, chunkOrderError
			}
			if err := checkPLTE(s.header, c.data); err != nil {
				return nil, err
			}
			if s.header.colorType == ColorPalette {
				s.plte = c.data
			} else {
				log.Debug().Msg("ignoring suggested palette")
			}
			stage = dsSeenPLTE
		case kindIDAT:
			if stage == dsSeenIDAT && last != kindIDAT {
				return nil, FormatError("IDAT chunks are not consecutive")
			}
			if s.header.colorType == ColorPalette && s.plte == nil {
				return nil, FormatError("missing PLTE chunk")
			}
			s.idat = append(s.idat, c.data...)
			stage = dsSeenIDAT
		case kindIEND:
			if stage != dsSeenIDAT {
				return nil, FormatError("missing IDAT chunk")
			}
			if len(c.data) != 0 {
				return nil, FormatError("bad IEND length")
			}
			stage = dsSeenIEND
		case kindOther:
			if critical {
				return nil, FormatError("unsupported critical chunk " + c.typ)
			}
			log.Debug().Str("chunk", c.typ).Int("length", len(c.data)).Msg("keeping unknown chunk")
			s.unknown = append(s.unknown, Chunk{
				Type:      c.typ,
				Data:      append([]byte(nil), c.data...),
				AfterIDAT: stage == dsSeenIDAT,
			})
		default:
			if reason := misplaced(kind, stage, s); reason != "" {
				log.Warn().Str("chunk", c.typ).Msg(reason)
				break
			}
			if _, dup := s.ancillary[kind]; dup {
				log.Warn().Str("chunk", c.typ).Msg("ignoring duplicate chunk")
				break
			}
			s.ancillary[kind] = c.data
		}
		last = kind
	}
	return s, nil
}

// misplaced explains why a known ancillary chunk is ignored at this
// point, or returns "".
func misplaced(kind chunkKind, stage int, s *stream) string {
	switch kind {
	case kindGAMA:
		if stage >= dsSeenPLTE {
			return "ignoring gAMA after PLTE or IDAT"
		}
	case kindBKGD, kindTRNS:
		if stage >= dsSeenIDAT {
			return "ignoring " + kind.String() + " after IDAT"
		}
		if s.header.colorType == ColorPalette && s.plte == nil {
			return "ignoring " + kind.String() + " before PLTE"
		}
	case kindPHYS, kindOFFS:
		if stage >= dsSeenIDAT {
			return "ignoring " + kind.String() + " after IDAT"
		}
	}
	return ""
}

func parseIHDR(b []byte) (header, error) {
	if len(b) != 13 {
		return header{}, FormatError("bad IHDR length")
	}
	if b[10] != 0 {
		return header{}, FormatError("unsupported compression method")
	}
	if b[11] != 0 {
		return header{}, FormatError("unsupported filter method")
	}
	if b[12] > 1 {
		return header{}, FormatError("unsupported interlace method")
	}
	w := int32(binary.BigEndian.Uint32(b[0:4]))
	h := int32(binary.BigEndian.Uint32(b[4:8]))
	if w <= 0 || h <= 0 {
		return header{}, FormatError("non-positive dimension")
	}
	nPixels64 := int64(w) * int64(h)
	nPixels := int(nPixels64)
	// There can be up to 8 bytes per pixel, for 16 bits per channel RGBA.
	if nPixels64 != int64(nPixels) || nPixels != (nPixels*8)/8 {
		return header{}, FormatError("dimension overflow")
	}
	depth, ct := int(b[8]), ColorType(b[9])
	if !ct.ValidDepth(depth) {
		return header{}, FormatError(formatDepth(ct, depth))
	}
	return header{
		width:     int(w),
		height:    int(h),
		depth:     depth,
		colorType: ct,
		interlace: InterlaceType(b[12]),
	}, nil
}

func checkPLTE(h header, b []byte) error {
	switch h.colorType {
	case ColorGray, ColorGrayAlpha:
		return FormatError("PLTE chunk in " + h.colorType.String() + " image")
	}
	n := len(b) / 3
	if len(b)%3 != 0 || n == 0 || n > 256 {
		return FormatError("bad PLTE length")
	}
	return nil
}

// chunkWriter frames chunks onto w. The first error sticks.
type chunkWriter struct {
	w   io.Writer
	err error
	tmp [8]byte
}

func (cw *chunkWriter) header() {
	if cw.err == nil {
		_, cw.err = io.WriteString(cw.w, pngHeader)
	}
}

func (cw *chunkWriter) chunk(typ string, data []byte) {
	if cw.err != nil {
		return
	}
	if len(data) > 0x7fffffff {
		cw.err = EncodeError(fmt.Sprintf("%s chunk is too large: %d", typ, len(data)))
		return
	}
	binary.BigEndian.PutUint32(cw.tmp[:4], uint32(len(data)))
	copy(cw.tmp[4:8], typ)
	crc := crc32.NewIEEE()
	crc.Write(cw.tmp[4:8])
	crc.Write(data)
	if _, cw.err = cw.w.Write(cw.tmp[:8]); cw.err != nil {
		return
	}
	if _, cw.err = cw.w.Write(data); cw.err != nil {
		return
	}
	binary.BigEndian.PutUint32(cw.tmp[:4], crc.Sum32())
	_, cw.err = cw.w.Write(cw.tmp[:4])
}

// idat splits the compressed stream into chunks of at most size bytes.
func (cw *chunkWriter) idat(payload []byte, size int) {
	if size <= 0 {
		size = defaultChunkSize
	}
	for len(payload) > size {
		cw.chunk("IDAT", payload[:size])
		payload = payload[size:]
	}
	// An empty payload still needs one IDAT chunk.
	cw.chunk("IDAT", payload)
}
