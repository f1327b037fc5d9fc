package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/report"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_report>",
	Short: "Display statistics for an optimized directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for the report inside.
	info, err := os.Stat(path)
	if err != nil {
		return oops.New(err, "stat %s", path)
	}
	if info.IsDir() {
		path = filepath.Join(path, report.FileName)
	}

	r, err := report.ReadJSON(path)
	if err != nil {
		return oops.New(err, "read report")
	}

	printStats(r)
	return nil
}

func printStats(r *report.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", r.Profile)
	if r.RunInfo != nil {
		fmt.Printf("  Workers:          %d\n", r.RunInfo.Workers)
		fmt.Printf("  CRC policy:       %s\n", r.RunInfo.CRCPolicy)
	}
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Total images:     %d\n", s.TotalImages)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		fmt.Printf("  Compression:      %.1f%% of original (%s saved)\n", s.Ratio()*100, formatBytes(s.SavedBytes()))
	}
	fmt.Println()

	// Per color model breakdown.
	type bucket struct {
		count      int
		in, out    int64
		interlaced int
	}
	models := map[string]bucket{}
	for _, e := range r.Images {
		k := fmt.Sprintf("%s/%d", e.ColorType, e.BitDepth)
		b := models[k]
		b.count++
		b.in += e.InputSize
		b.out += e.OutputSize
		if e.Interlace == "adam7" {
			b.interlaced++
		}
		models[k] = b
	}
	var keys []string
	for k := range models {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("  Color model breakdown:")
	for _, k := range keys {
		b := models[k]
		fmt.Printf("    %-14s %4d files  %9s → %9s", k, b.count, formatBytes(b.in), formatBytes(b.out))
		if b.interlaced > 0 {
			fmt.Printf("  (%d interlaced)", b.interlaced)
		}
		fmt.Println()
	}

	// Warnings.
	var warnings []string
	for key, e := range r.Images {
		if e.PixelHash == "" {
			warnings = append(warnings, fmt.Sprintf("image %q missing pixel hash", key))
		}
		if e.Skipped {
			warnings = append(warnings, fmt.Sprintf("image %q kept as is (re-encode was not smaller)", key))
		}
	}
	for key, msg := range r.Failures {
		warnings = append(warnings, fmt.Sprintf("image %q failed: %s", key, msg))
	}
	sort.Strings(warnings)
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
