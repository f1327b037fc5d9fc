package encoder

import (
	"github.com/AnyUserName/pngkit/internal/pngimage"
)

// Encoder writes a decoded PNG in some output format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "jpeg", "tiff").
	Format() string

	// Encode converts the image to bytes.
	Encode(img *pngimage.Image) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}
