package cmd

import (
	"fmt"
	"runtime"

	"github.com/AnyUserName/pngkit/internal/logging"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	verbose  bool
	logLevel string
	crcFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "pngkit",
	Short: "PNG decoder, encoder and batch optimizer",
	Long: `pngkit reads and writes PNG images in every standard color type and
bit depth, with or without Adam7 interlacing.

Inspect files, re-encode whole directories losslessly with a compression
profile, resize canvases, and convert to and from other raster formats.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&crcFlag, "crc", "strict", "chunk checksum policy: strict, critical-only, ignore")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pngkit %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(logLevel, verbose)
	if err != nil {
		return err
	}
	logging.Setup(cmd.ErrOrStderr(), level)
	return nil
}

// logVerbose prints a message only at debug level.
func logVerbose(format string, args ...any) {
	logging.Debug().Msgf(format, args...)
}

func crcPolicy() (pngimage.CRCPolicy, error) {
	for _, p := range []pngimage.CRCPolicy{pngimage.CRCStrict, pngimage.CRCCriticalOnly, pngimage.CRCIgnore} {
		if p.String() == crcFlag {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown --crc policy %q", crcFlag)
}

// readPNG decodes path with the --crc policy, logging tolerated chunk
// problems.
func readPNG(path string) (*pngimage.Image, error) {
	policy, err := crcPolicy()
	if err != nil {
		return nil, err
	}
	log := logging.With().Str("file", path).Logger()
	return pngimage.ReadFile(path, pngimage.WithCRCPolicy(policy), pngimage.WithLogger(log))
}
