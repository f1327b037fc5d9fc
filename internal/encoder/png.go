package encoder

import (
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/profile"
)

// PNGEncoder re-encodes through the codec with the settings of a profile.
// Metadata and safe-to-copy chunks survive.
type PNGEncoder struct {
	Profile profile.Profile
}

func (e *PNGEncoder) Format() string    { return "png" }
func (e *PNGEncoder) Extension() string { return "png" }
func (e *PNGEncoder) Available() bool   { return true }

func (e *PNGEncoder) Encode(img *pngimage.Image) ([]byte, error) {
	return img.EncodeWith(e.Profile.EncodeOptions())
}
