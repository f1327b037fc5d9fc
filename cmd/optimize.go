package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/pipeline"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/profile"
	"github.com/AnyUserName/pngkit/internal/report"
	"github.com/spf13/cobra"
)

var (
	optOutDir    string
	optProfile   string
	optWorkers   int
	optNoRegress bool
	optIgnoreCRC bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <input_dir>",
	Short: "Losslessly re-encode every PNG in a directory and write a report",
	Long: `Scans the input directory for .png files, decodes each one and writes it
again with the filter and compression settings of a profile. Every output
is decoded once more and must have the same pixel hash as its input.

Outputs mirror the input tree. A report (pngkit.report.json) is written
to the output directory.

Profiles: fast, default, best, progressive, archive.`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&optOutDir, "out", "o", "./pngkit_out", "output directory")
	optimizeCmd.Flags().StringVarP(&optProfile, "profile", "p", "default", "encode profile")
	optimizeCmd.Flags().IntVarP(&optWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	optimizeCmd.Flags().BoolVar(&optNoRegress, "no-regress-size", true, "keep the original when re-encoding is not smaller")
	optimizeCmd.Flags().BoolVar(&optIgnoreCRC, "ignore-crc", false, "decode files with bad chunk checksums (same as --crc ignore)")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(_ *cobra.Command, args []string) error {
	inputDir := args[0]
	start := time.Now()

	// Resolve absolute paths.
	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return oops.New(err, "resolve input path")
	}
	absOutput, err := filepath.Abs(optOutDir)
	if err != nil {
		return oops.New(err, "resolve output path")
	}
	if absInput == absOutput {
		return oops.New(nil, "output directory must differ from the input directory")
	}

	policy, err := crcPolicy()
	if err != nil {
		return err
	}
	if optIgnoreCRC {
		policy = pngimage.CRCIgnore
	}

	prof := profile.Get(optProfile)
	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (level=%d, filter=%s)", prof.Name, prof.Level, prof.Filter)

	// Create output dir.
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return oops.New(err, "create output dir")
	}

	// Run pipeline.
	p := pipeline.New(pipeline.Config{
		InputDir:      absInput,
		OutputDir:     absOutput,
		Profile:       prof,
		Workers:       optWorkers,
		NoRegressSize: optNoRegress,
		CRCPolicy:     policy,
	})

	r, err := p.Run()
	if err != nil {
		return oops.New(err, "optimize")
	}

	// Write report.
	reportPath := filepath.Join(absOutput, report.FileName)
	if err := report.WriteJSON(r, reportPath); err != nil {
		return oops.New(err, "write report")
	}

	printOptimizeReport(r, time.Since(start))
	return nil
}

func printOptimizeReport(r *report.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║             pngkit optimize complete             ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	stats := r.Stats
	fmt.Printf("  Images:      %d\n", stats.TotalImages)
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", stats.Ratio()*100)
	if stats.SkippedRegress > 0 {
		fmt.Printf("  Kept:        %d originals (re-encode was not smaller)\n", stats.SkippedRegress)
	}
	if stats.Failed > 0 {
		fmt.Printf("  Failed:      %d (see report)\n", stats.Failed)
	}
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if r.RunInfo != nil {
		fmt.Printf("  Workers:     %d\n", r.RunInfo.Workers)
	}
	fmt.Println()

	// Top 10 biggest savings.
	if len(r.Images) > 0 {
		type saving struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []saving
		for key, e := range r.Images {
			items = append(items, saving{key, e.InputSize, e.OutputSize})
		}
		sort.Slice(items, func(i, j int) bool {
			si := items[i].inputSize - items[i].outputSize
			sj := items[j].inputSize - items[j].outputSize
			if si != sj {
				return si > sj
			}
			return items[i].key < items[j].key
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d savings (original → optimized):\n", n)
		for _, it := range items[:n] {
			saved := float64(0)
			if it.inputSize > 0 {
				saved = (1 - float64(it.outputSize)/float64(it.inputSize)) * 100
			}
			fmt.Printf("    %-40s %8s → %8s  (−%.0f%%)\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
				saved,
			)
		}
		fmt.Println()
	}

	data, _ := json.Marshal(r)
	fmt.Printf("  Report:      %s (%s)\n", report.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}
