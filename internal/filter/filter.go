// Package filter implements the five PNG scanline predictors.
//
// Rows are handled as byte slices without the leading filter-type tag.
// The previous row passed to Unfilter and Apply is always the
// reconstructed (unfiltered) row of the same pass, or a zero row for the
// first row of a pass.
package filter

import "fmt"

// Type is the filter tag that prefixes each scanline.
type Type uint8

const (
	None    Type = 0
	Sub     Type = 1
	Up      Type = 2
	Average Type = 3
	Paeth   Type = 4

	numTypes = 5
)

var typeNames = [numTypes]string{"none", "sub", "up", "average", "paeth"}

func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("filter(%d)", uint8(t))
}

// Valid reports whether t is one of the five standard predictors.
func (t Type) Valid() bool { return t < numTypes }

// ParseType maps a filter name back to its Type.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return None, false
}

// InvalidTypeError is returned by Unfilter for a tag outside 0..4.
type InvalidTypeError uint8

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("bad filter type %d", uint8(e))
}

// Unfilter reconstructs cur in place. prev must have the same length as
// cur and bpp is the distance to the left neighbour, at least 1.
func Unfilter(t Type, cur, prev []byte, bpp int) error {
	switch t {
	case None:
		// No-op.
	case Sub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case Up:
		for i, p := range prev {
			cur[i] += p
		}
	case Average:
		// The first bpp bytes have no left neighbour.
		n := min(bpp, len(cur))
		for i := 0; i < n; i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case Paeth:
		n := min(bpp, len(cur))
		for i := 0; i < n; i++ {
			cur[i] += prev[i]
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += PaethPredictor(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return InvalidTypeError(t)
	}
	return nil
}

// Apply writes the filtered form of cur into dst, which must be at least
// len(cur) bytes long. cur and prev are left untouched.
func Apply(dst []byte, t Type, cur, prev []byte, bpp int) {
	dst = dst[:len(cur)]
	switch t {
	case Sub:
		copy(dst, cur[:min(bpp, len(cur))])
		for i := bpp; i < len(cur); i++ {
			dst[i] = cur[i] - cur[i-bpp]
		}
	case Up:
		for i := range cur {
			dst[i] = cur[i] - prev[i]
		}
	case Average:
		n := min(bpp, len(cur))
		for i := 0; i < n; i++ {
			dst[i] = cur[i] - prev[i]/2
		}
		for i := bpp; i < len(cur); i++ {
			dst[i] = cur[i] - uint8((int(cur[i-bpp])+int(prev[i]))/2)
		}
	case Paeth:
		n := min(bpp, len(cur))
		for i := 0; i < n; i++ {
			dst[i] = cur[i] - prev[i]
		}
		for i := bpp; i < len(cur); i++ {
			dst[i] = cur[i] - PaethPredictor(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		copy(dst, cur)
	}
}

// PaethPredictor picks whichever of left (a), up (b) and upper-left (c)
// is closest to a+b-c. Ties go to a, then b.
func PaethPredictor(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
