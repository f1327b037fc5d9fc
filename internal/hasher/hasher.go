package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/cespare/xxhash/v2"
)

// DefaultHexLen is the digest length used in reports: 16 hex chars, the
// full 64 bits.
const DefaultHexLen = 16

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to hexLen. A non-positive hexLen keeps all 16 chars.
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

// ContentHashReader is ContentHash over a stream.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return truncate(h.Sum64(), hexLen), nil
}

// PixelHash digests what an image looks like rather than how it is
// stored: the header fields that give the samples their meaning, the
// palette and alpha table or transparent color key, and the sample
// buffer. Re-filtering,
// recompressing or re-interlacing an image leaves it unchanged.
func PixelHash(img *pngimage.Image, hexLen int) string {
	h := xxhash.New()
	var hdr [10]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(img.Width()))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(img.Height()))
	hdr[8] = uint8(img.ColorType())
	hdr[9] = uint8(img.BitDepth())
	h.Write(hdr[:])
	if p, ok := img.Palette(); ok {
		for _, e := range p {
			h.Write([]byte{e.R, e.G, e.B})
		}
	}
	if t, ok := img.Transparency(); ok {
		if t.Key != nil {
			var key [6]byte
			for i, v := range t.Raw {
				binary.BigEndian.PutUint16(key[2*i:], v)
			}
			h.Write(key[:])
		} else {
			h.Write(t.Alpha)
		}
	}
	h.Write(img.Data())
	return truncate(h.Sum64(), hexLen)
}

func truncate(v uint64, hexLen int) string {
	full := hex.EncodeToString(binary.BigEndian.AppendUint64(nil, v))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
