package pngimage

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Physical size units (pHYs).
const (
	UnitUnknown uint8 = 0
	UnitMeter   uint8 = 1
)

// Offset units (oFFs).
const (
	OffsetPixel      uint8 = 0
	OffsetMicrometer uint8 = 1
)

// metadata holds the interpreted ancillary chunks of an image. Optional
// values keep an explicit presence flag; none of them is defaulted.
type metadata struct {
	palette Palette
	trns    *Transparency

	background Color
	bkgdRaw    []byte

	gammaRaw uint32
	hasGamma bool

	modTime time.Time
	hasTime bool

	physX, physY uint32
	physUnit     uint8
	hasPhys      bool

	offX, offY int32
	offUnit    uint8
	hasOffs    bool

	unknown []Chunk
}

func parsePalette(b []byte) Palette {
	p := make(Palette, len(b)/3)
	for i := range p {
		p[i] = RGB{R: b[3*i], G: b[3*i+1], B: b[3*i+2]}
	}
	return p
}

// parseMetadata interprets the ancillary chunks captured by the chunk
// codec for an image with header h.
func parseMetadata(h header, s *stream) (metadata, error) {
	var m metadata
	if s.plte != nil {
		m.palette = parsePalette(s.plte)
	}
	if b, ok := s.ancillary[kindTRNS]; ok {
		t, err := parseTRNS(h, m.palette, b)
		if err != nil {
			return m, err
		}
		m.trns = t
	}
	if b, ok := s.ancillary[kindBKGD]; ok {
		c, err := parseBKGD(h, m.palette, b)
		if err != nil {
			return m, err
		}
		m.background = c
		m.bkgdRaw = append([]byte(nil), b...)
	}
	if b, ok := s.ancillary[kindGAMA]; ok {
		if len(b) != 4 {
			return m, FormatError("bad gAMA length")
		}
		m.gammaRaw, m.hasGamma = binary.BigEndian.Uint32(b), true
	}
	if b, ok := s.ancillary[kindTIME]; ok {
		t, err := parseTIME(b)
		if err != nil {
			return m, err
		}
		m.modTime, m.hasTime = t, true
	}
	if b, ok := s.ancillary[kindPHYS]; ok {
		if len(b) != 9 {
			return m, FormatError("bad pHYs length")
		}
		m.physX = binary.BigEndian.Uint32(b[0:4])
		m.physY = binary.BigEndian.Uint32(b[4:8])
		m.physUnit, m.hasPhys = b[8], true
	}
	if b, ok := s.ancillary[kindOFFS]; ok {
		if len(b) != 9 {
			return m, FormatError("bad oFFs length")
		}
		m.offX = int32(binary.BigEndian.Uint32(b[0:4]))
		m.offY = int32(binary.BigEndian.Uint32(b[4:8]))
		m.offUnit, m.hasOffs = b[8], true
	}
	m.unknown = s.unknown
	return m, nil
}

func sampleMask(depth int) uint16 {
	if depth == 16 {
		return 0xffff
	}
	return 1<<uint(depth) - 1
}

func parseTRNS(h header, p Palette, b []byte) (*Transparency, error) {
	switch h.colorType {
	case ColorPalette:
		if len(b) > len(p) {
			return nil, FormatError("bad tRNS length")
		}
		return &Transparency{Alpha: append([]uint8(nil), b...)}, nil
	case ColorGray:
		if len(b) != 2 {
			return nil, FormatError("bad tRNS length")
		}
		v := binary.BigEndian.Uint16(b) & sampleMask(h.depth)
		return &Transparency{Key: Gray{Y: scaleUp(v, h.depth)}, Raw: [3]uint16{v}}, nil
	case ColorRGB:
		if len(b) != 6 {
			return nil, FormatError("bad tRNS length")
		}
		var raw [3]uint16
		for i := range raw {
			raw[i] = binary.BigEndian.Uint16(b[2*i:]) & sampleMask(h.depth)
		}
		key := RGB{R: scaleUp(raw[0], h.depth), G: scaleUp(raw[1], h.depth), B: scaleUp(raw[2], h.depth)}
		return &Transparency{Key: key, Raw: raw}, nil
	}
	return nil, FormatError("tRNS chunk in " + h.colorType.String() + " image")
}

// parseBKGD resolves the background into the image's color domain: Gray
// for gray images and RGB otherwise. Palette indices are looked up
// immediately.
func parseBKGD(h header, p Palette, b []byte) (Color, error) {
	switch h.colorType {
	case ColorGray, ColorGrayAlpha:
		if len(b) != 2 {
			return nil, FormatError("bad bKGD length")
		}
		v := binary.BigEndian.Uint16(b) & sampleMask(h.depth)
		return Gray{Y: scaleUp(v, h.depth)}, nil
	case ColorRGB, ColorRGBA:
		if len(b) != 6 {
			return nil, FormatError("bad bKGD length")
		}
		var c [3]uint8
		for i := range c {
			v := binary.BigEndian.Uint16(b[2*i:])
			if h.depth == 16 {
				c[i] = uint8(v >> 8)
			} else {
				c[i] = uint8(v)
			}
		}
		return RGB{R: c[0], G: c[1], B: c[2]}, nil
	case ColorPalette:
		if len(b) != 1 {
			return nil, FormatError("bad bKGD length")
		}
		return p.Lookup(b[0])
	}
	return nil, FormatError("bKGD chunk in " + h.colorType.String() + " image")
}

func parseTIME(b []byte) (time.Time, error) {
	if len(b) != 7 {
		return time.Time{}, FormatError("bad tIME length")
	}
	year := int(binary.BigEndian.Uint16(b[0:2]))
	month, day := int(b[2]), int(b[3])
	hour, minute, sec := int(b[4]), int(b[5]), int(b[6])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 60 {
		return time.Time{}, FormatError(fmt.Sprintf("bad tIME value %d-%02d-%02d %02d:%02d:%02d",
			year, month, day, hour, minute, sec))
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), nil
}

// ancillaryChunk is one serialized chunk of metadata with its position
// relative to PLTE and IDAT.
type ancillaryChunk struct {
	typ  string
	data []byte
}

// beforePLTE, afterPLTE and afterIDAT list the metadata chunks in the
// order the encoder writes them.
func (m *metadata) beforePLTE() []ancillaryChunk {
	var out []ancillaryChunk
	if m.hasGamma {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, m.gammaRaw)
		out = append(out, ancillaryChunk{"gAMA", b})
	}
	return out
}

func (m *metadata) afterPLTE(ct ColorType) []ancillaryChunk {
	var out []ancillaryChunk
	if m.trns != nil {
		out = append(out, ancillaryChunk{"tRNS", encodeTRNS(ct, m.trns)})
	}
	if m.bkgdRaw != nil {
		out = append(out, ancillaryChunk{"bKGD", m.bkgdRaw})
	}
	if m.hasPhys {
		b := make([]byte, 9)
		binary.BigEndian.PutUint32(b[0:4], m.physX)
		binary.BigEndian.PutUint32(b[4:8], m.physY)
		b[8] = m.physUnit
		out = append(out, ancillaryChunk{"pHYs", b})
	}
	if m.hasOffs {
		b := make([]byte, 9)
		binary.BigEndian.PutUint32(b[0:4], uint32(m.offX))
		binary.BigEndian.PutUint32(b[4:8], uint32(m.offY))
		b[8] = m.offUnit
		out = append(out, ancillaryChunk{"oFFs", b})
	}
	return out
}

func (m *metadata) afterIDAT() []ancillaryChunk {
	var out []ancillaryChunk
	if m.hasTime {
		t := m.modTime.UTC()
		b := make([]byte, 7)
		binary.BigEndian.PutUint16(b[0:2], uint16(t.Year()))
		b[2], b[3] = uint8(t.Month()), uint8(t.Day())
		b[4], b[5], b[6] = uint8(t.Hour()), uint8(t.Minute()), uint8(t.Second())
		out = append(out, ancillaryChunk{"tIME", b})
	}
	return out
}

func encodeTRNS(ct ColorType, t *Transparency) []byte {
	switch ct {
	case ColorPalette:
		return append([]byte(nil), t.Alpha...)
	case ColorGray:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, t.Raw[0])
		return b
	}
	b := make([]byte, 6)
	for i, v := range t.Raw {
		binary.BigEndian.PutUint16(b[2*i:], v)
	}
	return b
}
