package encoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/pngkit/internal/profile"
)

// Registry holds all available encoders, keyed by format.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
// p configures PNG output; quality applies to lossy formats.
func NewRegistry(p profile.Profile, quality int) *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}

	// Register all encoders. Only available ones will be used.
	all := []Encoder{
		&PNGEncoder{Profile: p},
		&JPEGEncoder{Quality: quality},
		&BMPEncoder{},
		&TIFFEncoder{},
		NewWebPEncoder(quality),
		NewAVIFEncoder(quality),
	}

	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}

	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

var extFormats = map[string]string{
	"png":  "png",
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"bmp":  "bmp",
	"tif":  "tiff",
	"tiff": "tiff",
	"webp": "webp",
	"avif": "avif",
}

// ForPath picks the encoder matching the extension of path.
func (r *Registry) ForPath(path string) (Encoder, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	format, ok := extFormats[ext]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", filepath.Ext(path))
	}
	enc := r.Get(format)
	if enc == nil {
		return nil, fmt.Errorf("%s encoder not available (%s)", format, r)
	}
	return enc, nil
}

// Available returns all available format names.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range []string{"png", "jpeg", "bmp", "tiff", "webp", "avif"} {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
