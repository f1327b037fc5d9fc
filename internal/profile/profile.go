package profile

import (
	"github.com/AnyUserName/pngkit/internal/filter"
	"github.com/AnyUserName/pngkit/internal/pngimage"
)

// Profile is a named set of PNG encode settings.
type Profile struct {
	Name      string
	Level     pngimage.CompressionLevel
	Filter    filter.Strategy
	Interlace *pngimage.InterlaceType // nil keeps each image's own
	ChunkSize int                     // IDAT payload cap, 0 for the codec default
}

var (
	noInterlace = pngimage.InterlaceNone
	adam7       = pngimage.InterlaceAdam7
)

// Built-in profiles.
var profiles = map[string]Profile{
	"fast": {
		Name:   "fast",
		Level:  pngimage.BestSpeed,
		Filter: filter.Fixed(filter.Sub),
	},
	"default": {
		Name:   "default",
		Level:  pngimage.DefaultCompression,
		Filter: filter.Adaptive,
	},
	"best": {
		Name:      "best",
		Level:     pngimage.BestCompression,
		Filter:    filter.Adaptive,
		Interlace: &noInterlace, // interlacing only costs bytes
	},
	"progressive": {
		Name:      "progressive",
		Level:     pngimage.BestCompression,
		Filter:    filter.Adaptive,
		Interlace: &adam7,
	},
	"archive": {
		Name:      "archive",
		Level:     pngimage.BestCompression,
		Filter:    filter.Adaptive,
		ChunkSize: 1 << 20,
	},
}

// Get returns a profile by name. Falls back to default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles["default"]
	p.Name = name // preserve requested name
	return p
}

// Names lists the built-in profiles.
func Names() []string {
	return []string{"fast", "default", "best", "progressive", "archive"}
}

// EncodeOptions converts the profile into codec options.
func (p Profile) EncodeOptions() pngimage.EncodeOptions {
	return pngimage.EncodeOptions{
		Level:     p.Level,
		Filter:    p.Filter,
		Interlace: p.Interlace,
		ChunkSize: p.ChunkSize,
	}
}
