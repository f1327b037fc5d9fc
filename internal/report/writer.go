package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty report with defaults.
func New(profileName string) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		BasePath:    "./",
		Images:      make(map[string]Entry),
	}
}

// ComputeStats recalculates aggregate statistics from the entries.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalImages = len(r.Images)
	s.Failed = len(r.Failures)
	for _, e := range r.Images {
		s.TotalInputBytes += e.InputSize
		s.TotalOutputBytes += e.OutputSize
		if e.Skipped {
			s.SkippedRegress++
		}
	}
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file with stable ordering.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report, rejecting schema versions newer than this
// build understands. Unknown fields are ignored.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if r.Version > SupportedVersion {
		return nil, fmt.Errorf("report version %d is newer than supported version %d", r.Version, SupportedVersion)
	}
	if r.Images == nil {
		r.Images = make(map[string]Entry)
	}
	return &r, nil
}
