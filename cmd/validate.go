package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/pngkit/internal/hasher"
	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/report"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report_path>",
	Short: "Validate a pngkit report and re-check every output file",
	Long: `Checks that every image listed in the report exists, has the recorded
size, decodes cleanly and still has the recorded pixel hash.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	reportPath := args[0]

	r, err := report.ReadJSON(reportPath)
	if err != nil {
		return oops.New(err, "read report")
	}

	errs := validateReport(r, filepath.Join(filepath.Dir(reportPath), r.BasePath))
	if len(errs) == 0 {
		fmt.Println("  ✓ Report is valid")
		fmt.Printf("  ✓ %d images, all present with matching pixels\n", r.Stats.TotalImages)
		return nil
	}

	fmt.Printf("  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateReport(r *report.Report, baseDir string) []string {
	var errs []string

	// Check version.
	if r.Version != report.SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	keys := make([]string, 0, len(r.Images))
	for key := range r.Images {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seenPaths := map[string]string{}
	var inSum, outSum int64
	for _, key := range keys {
		e := r.Images[key]
		inSum += e.InputSize
		outSum += e.OutputSize

		if e.Width <= 0 || e.Height <= 0 {
			errs = append(errs, fmt.Sprintf("image %q: invalid dimensions %dx%d", key, e.Width, e.Height))
		}
		if e.PixelHash == "" {
			errs = append(errs, fmt.Sprintf("image %q: missing pixel hash", key))
		}
		if e.Path == "" {
			errs = append(errs, fmt.Sprintf("image %q: missing path", key))
			continue
		}

		// Check duplicate paths.
		if other, ok := seenPaths[e.Path]; ok {
			errs = append(errs, fmt.Sprintf("image %q: path %q already used by %q", key, e.Path, other))
		}
		seenPaths[e.Path] = key

		// Check the file itself.
		data, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(e.Path)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("image %q: file not found: %s", key, e.Path))
			continue
		}
		if e.OutputSize > 0 && int64(len(data)) != e.OutputSize {
			errs = append(errs, fmt.Sprintf("image %q: size mismatch: report=%d, disk=%d", key, e.OutputSize, len(data)))
		}
		img, err := pngimage.DecodeBytes(data)
		if err != nil {
			errs = append(errs, fmt.Sprintf("image %q: %v", key, err))
			continue
		}
		if img.Width() != e.Width || img.Height() != e.Height {
			errs = append(errs, fmt.Sprintf("image %q: dimensions %dx%d, report says %dx%d",
				key, img.Width(), img.Height(), e.Width, e.Height))
		}
		if got := hasher.PixelHash(img, hasher.DefaultHexLen); e.PixelHash != "" && got != e.PixelHash {
			errs = append(errs, fmt.Sprintf("image %q: pixel hash %s, report says %s", key, got, e.PixelHash))
		}
	}

	// Verify stats consistency.
	if r.Stats.TotalImages != len(r.Images) {
		errs = append(errs, fmt.Sprintf("stats.total_images mismatch: %d != %d", r.Stats.TotalImages, len(r.Images)))
	}
	if r.Stats.TotalInputBytes != inSum {
		errs = append(errs, fmt.Sprintf("stats.total_input_bytes mismatch: %d != %d", r.Stats.TotalInputBytes, inSum))
	}
	if r.Stats.TotalOutputBytes != outSum {
		errs = append(errs, fmt.Sprintf("stats.total_output_bytes mismatch: %d != %d", r.Stats.TotalOutputBytes, outSum))
	}

	return errs
}
