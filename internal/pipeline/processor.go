package pipeline

import (
	"os"
	"path/filepath"

	"github.com/AnyUserName/pngkit/internal/encoder"
	"github.com/AnyUserName/pngkit/internal/hasher"
	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/report"
	"github.com/rs/zerolog"
)

// processResult holds the result of processing a single source image.
type processResult struct {
	key   string
	entry report.Entry
	err   error
}

// processImage handles a single source image: decode, re-encode, verify
// and write.
func processImage(src Source, cfg Config, enc encoder.Encoder, log zerolog.Logger) processResult {
	result := processResult{key: src.RelPath}
	log = log.With().Str("file", src.RelPath).Logger()

	in, err := os.ReadFile(src.AbsPath)
	if err != nil {
		result.err = oops.New(err, "read %s", src.RelPath)
		return result
	}
	img, err := pngimage.DecodeBytes(in, pngimage.WithCRCPolicy(cfg.CRCPolicy), pngimage.WithLogger(log))
	if err != nil {
		result.err = oops.New(err, "decode %s", src.RelPath)
		return result
	}
	want := hasher.PixelHash(img, hasher.DefaultHexLen)

	data, err := enc.Encode(img)
	if err != nil {
		result.err = oops.New(err, "encode %s", src.RelPath)
		return result
	}

	// The output must decode to exactly the input's pixels.
	check, err := pngimage.DecodeBytes(data)
	if err != nil {
		result.err = oops.New(err, "re-decode %s", src.RelPath)
		return result
	}
	if got := hasher.PixelHash(check, hasher.DefaultHexLen); got != want {
		result.err = oops.New(nil, "%s: pixel hash changed from %s to %s", src.RelPath, want, got)
		return result
	}

	// Keep the original if re-encoding did not help (--no-regress-size).
	skipped := false
	if cfg.NoRegressSize && int64(len(data)) >= src.Size {
		log.Debug().Int("encoded", len(data)).Int64("original", src.Size).Msg("keeping original")
		data, skipped = in, true
	}

	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(src.RelPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.err = oops.New(err, "create output directory for %s", src.RelPath)
		return result
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		result.err = oops.New(err, "write %s", src.RelPath)
		return result
	}

	result.entry = report.Entry{
		Width:      img.Width(),
		Height:     img.Height(),
		ColorType:  img.ColorType().String(),
		BitDepth:   img.BitDepth(),
		Interlace:  check.InterlaceType().String(),
		InputSize:  src.Size,
		OutputSize: int64(len(data)),
		PixelHash:  want,
		Path:       src.RelPath,
		Skipped:    skipped,
	}
	if skipped {
		result.entry.Interlace = img.InterlaceType().String()
	}
	return result
}
