package cmd

import (
	"github.com/AnyUserName/pngkit/internal/encoder"
	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/profile"
	"github.com/spf13/cobra"
)

var (
	exportQuality int
	exportProfile string
)

var exportCmd = &cobra.Command{
	Use:   "export <in.png> <out.{png,jpg,bmp,tiff,webp,avif}>",
	Short: "Convert a PNG to another raster format",
	Long: `Decodes a PNG and writes it in the format named by the output extension.

JPEG output is composited over the image's background color (or white).
WebP and AVIF need cwebp and avifenc on PATH.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVarP(&exportQuality, "quality", "q", 0, "quality for lossy formats (0 = encoder default)")
	exportCmd.Flags().StringVarP(&exportProfile, "profile", "p", "default", "encode profile for PNG output")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	reg := encoder.NewRegistry(profile.Get(exportProfile), exportQuality)
	logVerbose("encoders: %s", reg)

	enc, err := reg.ForPath(args[1])
	if err != nil {
		return err
	}

	img, err := readPNG(args[0])
	if err != nil {
		return oops.New(err, "read %s", args[0])
	}
	data, err := enc.Encode(img)
	if err != nil {
		return oops.New(err, "encode %s", enc.Format())
	}
	if err := writeOutput(args[1], data); err != nil {
		return oops.New(err, "write %s", args[1])
	}
	logVerbose("%s: %s, %s", args[1], enc.Format(), formatBytes(int64(len(data))))
	return nil
}
