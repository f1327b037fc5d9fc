package pipeline

import (
	"runtime"
	"sync"

	"github.com/AnyUserName/pngkit/internal/encoder"
	"github.com/AnyUserName/pngkit/internal/logging"
	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/profile"
	"github.com/AnyUserName/pngkit/internal/report"
	"github.com/rs/zerolog"
)

// Config holds all parameters for an optimize run.
type Config struct {
	InputDir      string
	OutputDir     string
	Profile       profile.Profile
	Workers       int
	NoRegressSize bool // keep the original when re-encoding does not shrink it
	CRCPolicy     pngimage.CRCPolicy
	Logger        *zerolog.Logger // nil uses the global logger
}

// Pipeline re-encodes every PNG under a directory.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
	log      zerolog.Logger
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	log := logging.GlobalLogger()
	if cfg.Logger != nil {
		log = cfg.Logger
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(cfg.Profile, 0),
		log:      *log,
	}
}

// Run executes the full pipeline and returns the report.
func (p *Pipeline) Run() (*report.Report, error) {
	enc := p.registry.Get("png")
	p.log.Debug().Str("profile", p.cfg.Profile.Name).Msg(p.registry.String())

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.InputDir)
	if err != nil {
		return nil, oops.New(err, "scan %s", p.cfg.InputDir)
	}
	if len(sources) == 0 {
		return nil, oops.New(nil, "no PNG images found in %s", p.cfg.InputDir)
	}
	p.log.Info().Int("images", len(sources)).Int("workers", p.cfg.Workers).Msg("optimizing")

	// Step 2: Process images in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			// Stays in place if processing panics.
			results[idx] = processResult{key: s.RelPath, err: oops.New(nil, "processing %s panicked", s.RelPath)}
			defer logging.LogPanics(&p.log)

			p.log.Debug().Str("file", s.RelPath).Msg("processing")
			results[idx] = processImage(s, p.cfg, enc, p.log)
			if e := results[idx].entry; results[idx].err == nil {
				p.log.Debug().
					Str("file", s.RelPath).
					Int64("before", e.InputSize).
					Int64("after", e.OutputSize).
					Bool("skipped", e.Skipped).
					Msg("done")
			}
		}(i, src)
	}
	wg.Wait()

	// Step 3: Collect results into the report.
	r := report.New(p.cfg.Profile.Name)
	r.RunInfo = &report.RunInfo{
		Workers:       p.cfg.Workers,
		NoRegressSize: p.cfg.NoRegressSize,
		CRCPolicy:     p.cfg.CRCPolicy.String(),
	}

	var failed int
	for _, res := range results {
		if res.err != nil {
			failed++
			p.log.Error().Stack().Err(res.err).Str("file", res.key).Msg("failed to optimize")
			if r.Failures == nil {
				r.Failures = make(map[string]string)
			}
			r.Failures[res.key] = res.err.Error()
			continue
		}
		r.Images[res.key] = res.entry
	}

	// Report errors but don't fail the entire run for partial failures.
	if failed == len(sources) {
		return nil, oops.New(nil, "all %d images failed to process", failed)
	}
	if failed > 0 {
		p.log.Warn().Msgf("%d of %d images had errors", failed, len(sources))
	}

	r.ComputeStats()
	return r, nil
}
