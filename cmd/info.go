package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/AnyUserName/pngkit/internal/hasher"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info <file.png>...",
	Short: "Print the header and metadata of PNG files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print one JSON object per file")
	rootCmd.AddCommand(infoCmd)
}

// imageInfo is the --json form of info.
type imageInfo struct {
	Path         string     `json:"path"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	ColorType    string     `json:"color_type"`
	BitDepth     int        `json:"bit_depth"`
	Channels     int        `json:"channels"`
	Interlace    string     `json:"interlace"`
	RowBytes     int        `json:"row_bytes"`
	PaletteSize  int        `json:"palette_size,omitempty"`
	Transparency bool       `json:"transparency"`
	Background   []uint8    `json:"background,omitempty"`
	Gamma        float64    `json:"gamma,omitempty"`
	PPMX         int        `json:"pixels_per_meter_x,omitempty"`
	PPMY         int        `json:"pixels_per_meter_y,omitempty"`
	OffsetX      int        `json:"offset_x,omitempty"`
	OffsetY      int        `json:"offset_y,omitempty"`
	Time         *time.Time `json:"time,omitempty"`
	Chunks       []string   `json:"chunks,omitempty"`
	PixelHash    string     `json:"pixel_hash"`
}

func describe(path string, img *pngimage.Image) imageInfo {
	info := imageInfo{
		Path:      path,
		Width:     img.Width(),
		Height:    img.Height(),
		ColorType: img.ColorType().String(),
		BitDepth:  img.BitDepth(),
		Channels:  img.Channels(),
		Interlace: img.InterlaceType().String(),
		RowBytes:  img.RowBytes(),
		PPMX:      img.PixelsPerMeterX(),
		PPMY:      img.PixelsPerMeterY(),
		OffsetX:   img.OffsetX(),
		OffsetY:   img.OffsetY(),
		PixelHash: hasher.PixelHash(img, hasher.DefaultHexLen),
	}
	if p, ok := img.Palette(); ok {
		info.PaletteSize = len(p)
	}
	_, info.Transparency = img.Transparency()
	if bg, ok := img.Background(); ok {
		info.Background = colorSamples(bg)
	}
	if g, ok := img.Gamma(); ok {
		info.Gamma = g
	}
	if t, ok := img.Time(); ok {
		info.Time = &t
	}
	for _, c := range img.Chunks() {
		info.Chunks = append(info.Chunks, c.Type)
	}
	return info
}

func colorSamples(c pngimage.Color) []uint8 {
	switch c := c.(type) {
	case pngimage.Gray:
		return []uint8{c.Y}
	case pngimage.GrayAlpha:
		return []uint8{c.Y, c.A}
	case pngimage.Index:
		return []uint8{c.I}
	case pngimage.RGB:
		return []uint8{c.R, c.G, c.B}
	case pngimage.RGBA:
		return []uint8{c.R, c.G, c.B, c.A}
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var failed int
	for _, path := range args {
		img, err := readPNG(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %s: %v\n", path, err)
			failed++
			continue
		}
		info := describe(path, img)
		if infoJSON {
			if err := json.NewEncoder(out).Encode(info); err != nil {
				return err
			}
			continue
		}
		printInfo(out, info)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(args))
	}
	return nil
}

func printInfo(w io.Writer, info imageInfo) {
	fmt.Fprintf(w, "%s\n", info.Path)
	fmt.Fprintf(w, "  Size:         %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(w, "  Color:        %s, %d-bit (%d channels)\n", info.ColorType, info.BitDepth, info.Channels)
	fmt.Fprintf(w, "  Interlace:    %s\n", info.Interlace)
	fmt.Fprintf(w, "  Row bytes:    %d\n", info.RowBytes)
	if info.PaletteSize > 0 {
		fmt.Fprintf(w, "  Palette:      %d entries\n", info.PaletteSize)
	}
	if info.Transparency {
		fmt.Fprintf(w, "  Transparency: yes\n")
	}
	if info.Background != nil {
		fmt.Fprintf(w, "  Background:   %v\n", info.Background)
	}
	if info.Gamma != 0 {
		fmt.Fprintf(w, "  Gamma:        %.5f\n", info.Gamma)
	}
	if info.PPMX != 0 || info.PPMY != 0 {
		fmt.Fprintf(w, "  Density:      %dx%d px/m\n", info.PPMX, info.PPMY)
	}
	if info.OffsetX != 0 || info.OffsetY != 0 {
		fmt.Fprintf(w, "  Offset:       %d,%d px\n", info.OffsetX, info.OffsetY)
	}
	if info.Time != nil {
		fmt.Fprintf(w, "  Modified:     %s\n", info.Time.Format(time.RFC3339))
	}
	if len(info.Chunks) > 0 {
		fmt.Fprintf(w, "  Other chunks: %v\n", info.Chunks)
	}
	fmt.Fprintf(w, "  Pixel hash:   %s\n", info.PixelHash)
}
