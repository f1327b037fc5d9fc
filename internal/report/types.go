package report

// Report is the output of a pngkit optimize run.
type Report struct {
	Version     int               `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	Profile     string            `json:"profile"`
	BasePath    string            `json:"base_path"`
	RunInfo     *RunInfo          `json:"run_info,omitempty"`
	Images      map[string]Entry  `json:"images"`
	Failures    map[string]string `json:"failures,omitempty"` // input path -> error
	Stats       Stats             `json:"stats"`
}

// RunInfo captures run-time parameters for diagnostics.
type RunInfo struct {
	Workers       int    `json:"workers"`
	NoRegressSize bool   `json:"no_regress_size"`
	CRCPolicy     string `json:"crc_policy"`
}

// Entry describes one optimized image, keyed in Images by its input path
// relative to the input directory.
type Entry struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ColorType  string `json:"color_type"`
	BitDepth   int    `json:"bit_depth"`
	Interlace  string `json:"interlace"`
	InputSize  int64  `json:"input_size"`
	OutputSize int64  `json:"output_size"`       // bytes on disk
	PixelHash  string `json:"pixel_hash"`        // first 16 hex chars of xxhash64
	Path       string `json:"path"`              // relative to base_path
	Skipped    bool   `json:"skipped,omitempty"` // original kept, re-encode was not smaller
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalImages      int   `json:"total_images"`
	SkippedRegress   int   `json:"skipped_regress,omitempty"`
	Failed           int   `json:"failed,omitempty"`
}

// SavedBytes is how much smaller the outputs are than the inputs.
func (s Stats) SavedBytes() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Ratio is output over input size, 0 for an empty run.
func (s Stats) Ratio() float64 {
	if s.TotalInputBytes == 0 {
		return 0
	}
	return float64(s.TotalOutputBytes) / float64(s.TotalInputBytes)
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1

// FileName is the report's name inside the output directory.
const FileName = "pngkit.report.json"
