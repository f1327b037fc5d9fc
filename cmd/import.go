package cmd

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/profile"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	importMaxWidth  int
	importMaxHeight int
	importProfile   string
)

var importCmd = &cobra.Command{
	Use:   "import <in.{png,jpg,gif,bmp,tiff,webp}> <out.png>",
	Short: "Convert another raster format to PNG",
	Long: `Decodes any supported raster image and writes it as PNG, picking the
smallest color model that holds it: gray and paletted sources keep their
model, opaque color becomes RGB and translucent color RGBA.

--max-width and --max-height shrink the image to fit, keeping the aspect
ratio. Images already inside the box are not scaled.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importMaxWidth, "max-width", 0, "maximum width (0 = unlimited)")
	importCmd.Flags().IntVar(&importMaxHeight, "max-height", 0, "maximum height (0 = unlimited)")
	importCmd.Flags().StringVarP(&importProfile, "profile", "p", "default", "encode profile")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return oops.New(err, "open %s", args[0])
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return oops.New(err, "decode %s", args[0])
	}
	logVerbose("%s: %s %dx%d", args[0], format, src.Bounds().Dx(), src.Bounds().Dy())

	src = fitWithin(src, importMaxWidth, importMaxHeight)

	img, err := pngimage.FromImage(src)
	if err != nil {
		return oops.New(err, "convert %s", args[0])
	}
	data, err := img.EncodeWith(profile.Get(importProfile).EncodeOptions())
	if err != nil {
		return oops.New(err, "encode")
	}
	if err := writeOutput(args[1], data); err != nil {
		return oops.New(err, "write %s", args[1])
	}
	logVerbose("%s: %s %d-bit, %s", args[1], img.ColorType(), img.BitDepth(), formatBytes(int64(len(data))))
	return nil
}

// fitWithin scales src down to fit maxW x maxH. A zero bound is
// unlimited. Scaling turns the image into NRGBA.
func fitWithin(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	switch {
	case maxW <= 0 && maxH <= 0:
		return src
	case maxW > 0 && maxH > 0:
		if b.Dx() <= maxW && b.Dy() <= maxH {
			return src
		}
		return imaging.Fit(src, maxW, maxH, imaging.Lanczos)
	case maxW > 0:
		if b.Dx() <= maxW {
			return src
		}
		return imaging.Resize(src, maxW, 0, imaging.Lanczos)
	default:
		if b.Dy() <= maxH {
			return src
		}
		return imaging.Resize(src, 0, maxH, imaging.Lanczos)
	}
}
