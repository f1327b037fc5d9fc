package cmd

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/profile"
	"github.com/spf13/cobra"
)

var (
	canvasSize    string
	canvasOffset  string
	canvasRect    string
	canvasFill    string
	canvasProfile string
)

var canvasCmd = &cobra.Command{
	Use:   "canvas <in.png> <out.png>",
	Short: "Resize the canvas of a PNG, cropping or padding it",
	Long: `Places a region of the source image on a new canvas, without scaling.

  --size W,H      new canvas size (required)
  --offset X,Y    where the region lands on the new canvas
  --rect X,Y,W,H  source region to keep (default: whole image)
  --fill V,...    color for uncovered pixels, as 8-bit samples of the
                  image's color type (palette images take one index)

The color type, bit depth and palette are kept.`,
	Args: cobra.ExactArgs(2),
	RunE: runCanvas,
}

func init() {
	canvasCmd.Flags().StringVar(&canvasSize, "size", "", "new canvas size W,H")
	canvasCmd.Flags().StringVar(&canvasOffset, "offset", "0,0", "region position X,Y on the new canvas")
	canvasCmd.Flags().StringVar(&canvasRect, "rect", "", "source region X,Y,W,H")
	canvasCmd.Flags().StringVar(&canvasFill, "fill", "", "fill color samples")
	canvasCmd.Flags().StringVarP(&canvasProfile, "profile", "p", "default", "encode profile")
	_ = canvasCmd.MarkFlagRequired("size")
	rootCmd.AddCommand(canvasCmd)
}

func runCanvas(_ *cobra.Command, args []string) error {
	size, err := parsePoint(canvasSize)
	if err != nil {
		return oops.New(err, "--size")
	}
	offset, err := parsePoint(canvasOffset)
	if err != nil {
		return oops.New(err, "--offset")
	}
	var rect image.Rectangle
	if canvasRect != "" {
		if rect, err = parseRect(canvasRect); err != nil {
			return oops.New(err, "--rect")
		}
	}

	img, err := readPNG(args[0])
	if err != nil {
		return oops.New(err, "read %s", args[0])
	}
	if canvasRect == "" {
		rect = img.Bounds()
	}
	fill, err := parseFill(img.ColorType(), canvasFill)
	if err != nil {
		return oops.New(err, "--fill")
	}

	if err := img.ResizeCanvas(size, offset, rect, fill); err != nil {
		return oops.New(err, "resize canvas")
	}

	data, err := img.EncodeWith(profile.Get(canvasProfile).EncodeOptions())
	if err != nil {
		return oops.New(err, "encode")
	}
	if err := writeOutput(args[1], data); err != nil {
		return oops.New(err, "write %s", args[1])
	}
	logVerbose("%s: %dx%d → %s", args[1], img.Width(), img.Height(), formatBytes(int64(len(data))))
	return nil
}

// parseFill builds a color of type ct from comma-separated 8-bit samples.
// An empty string gives the zero color.
func parseFill(ct pngimage.ColorType, s string) (pngimage.Color, error) {
	var v []uint8
	if s != "" {
		for _, p := range strings.Split(s, ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%q: samples are 0..255", s)
			}
			v = append(v, uint8(n))
		}
	}
	want := ct.Channels()
	if v == nil {
		v = make([]uint8, want)
	}
	if len(v) != want {
		return nil, fmt.Errorf("%s fill takes %d values, got %d", ct, want, len(v))
	}
	switch ct {
	case pngimage.ColorGray:
		return pngimage.Gray{Y: v[0]}, nil
	case pngimage.ColorGrayAlpha:
		return pngimage.GrayAlpha{Y: v[0], A: v[1]}, nil
	case pngimage.ColorPalette:
		return pngimage.Index{I: v[0]}, nil
	case pngimage.ColorRGB:
		return pngimage.RGB{R: v[0], G: v[1], B: v[2]}, nil
	case pngimage.ColorRGBA:
		return pngimage.RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
	}
	return nil, fmt.Errorf("unsupported color type %s", ct)
}
