package pngimage

import "fmt"

// A FormatError reports that the input is not a valid PNG, or uses a
// feature this package does not decode.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

// An EncodeError reports an image configuration the encoder cannot write.
type EncodeError string

func (e EncodeError) Error() string { return "png: cannot encode: " + string(e) }

// A BoundsError reports a pixel coordinate or buffer index outside the
// image.
type BoundsError string

func (e BoundsError) Error() string { return "png: out of bounds: " + string(e) }

// A ColorMismatchError reports a color whose variant does not belong to
// the image's color type.
type ColorMismatchError struct {
	Want ColorType
	Got  ColorType
}

func (e *ColorMismatchError) Error() string {
	return fmt.Sprintf("png: color mismatch: image is %s, color is %s", e.Want, e.Got)
}

var chunkOrderError = FormatError("chunk out of order")

func boundsErrorf(format string, args ...any) error {
	return BoundsError(fmt.Sprintf(format, args...))
}

func formatDepth(ct ColorType, depth int) string {
	return fmt.Sprintf("bit depth %d, color type %d", depth, uint8(ct))
}
