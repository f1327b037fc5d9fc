package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/pngkit/internal/hasher"
	"github.com/AnyUserName/pngkit/internal/pngimage"
	"github.com/AnyUserName/pngkit/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns what it printed
// to its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	infoJSON = false
	crcFlag, logLevel, verbose = "strict", "error", false
	canvasOffset, canvasRect, canvasFill = "0,0", "", ""
	importMaxWidth, importMaxHeight, exportQuality = 0, 0, 0
	optProfile, canvasProfile, importProfile, exportProfile = "default", "default", "default", "default"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeGradient stores an 8-bit RGB image with R=16x, G=16y and B=32.
func writeGradient(t *testing.T, path string, w, h int) *pngimage.Image {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: byte(x * 16), G: byte(y * 16), B: 32, A: 255})
		}
	}
	img, err := pngimage.FromImage(src)
	require.NoError(t, err)
	require.Equal(t, pngimage.ColorRGB, img.ColorType())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, img.WriteFile(path))
	return img
}

func TestParseHelpers(t *testing.T) {
	p, err := parsePoint("18, 10")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(18, 10), p)

	r, err := parseRect("2,3,6,4")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(2, 3, 8, 7), r)

	_, err = parsePoint("1,2,3")
	assert.Error(t, err)
	_, err = parseRect("1,x,3,4")
	assert.Error(t, err)

	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "short", truncKey("short", 10))
	assert.Equal(t, "...efghij", truncKey("abcdefghij", 9))
}

func TestParseFill(t *testing.T) {
	tests := []struct {
		ct      pngimage.ColorType
		in      string
		want    pngimage.Color
		wantErr bool
	}{
		{pngimage.ColorGray, "7", pngimage.Gray{Y: 7}, false},
		{pngimage.ColorGrayAlpha, "7,200", pngimage.GrayAlpha{Y: 7, A: 200}, false},
		{pngimage.ColorPalette, "3", pngimage.Index{I: 3}, false},
		{pngimage.ColorRGB, "0,0,128", pngimage.RGB{B: 128}, false},
		{pngimage.ColorRGBA, "1,2,3,4", pngimage.RGBA{R: 1, G: 2, B: 3, A: 4}, false},
		{pngimage.ColorRGB, "", pngimage.RGB{}, false},
		{pngimage.ColorRGB, "1,2", nil, true},
		{pngimage.ColorGray, "256", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.ct.String()+"/"+tt.in, func(t *testing.T) {
			got, err := parseFill(tt.ct, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.png")
	img := writeGradient(t, path, 8, 4)

	out, err := run(t, "info", "--json", path)
	require.NoError(t, err)

	var info imageInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 8, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, "rgb", info.ColorType)
	assert.Equal(t, 8, info.BitDepth)
	assert.Equal(t, "none", info.Interlace)
	assert.Equal(t, hasher.PixelHash(img, hasher.DefaultHexLen), info.PixelHash)
}

func TestInfoMissingFile(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestCanvasCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out", "canvas.png")
	writeGradient(t, in, 4, 4)

	_, err := run(t, "canvas", in, out, "--size", "6,6", "--offset", "1,1", "--fill", "255,0,0")
	require.NoError(t, err)

	img, err := pngimage.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Width())
	assert.Equal(t, 6, img.Height())

	c, err := img.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, pngimage.RGB{R: 255}, c)
	c, err = img.At(2, 3)
	require.NoError(t, err)
	assert.Equal(t, pngimage.RGB{R: 16, G: 32, B: 32}, c)
}

func TestCanvasBadFill(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 2, 2)
	_, err := run(t, "canvas", in, filepath.Join(dir, "o.png"), "--size", "4,4", "--fill", "1,2")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	orig := writeGradient(t, in, 8, 8)

	for _, ext := range []string{"bmp", "tiff"} {
		t.Run(ext, func(t *testing.T) {
			mid := filepath.Join(dir, "mid."+ext)
			back := filepath.Join(dir, "back-"+ext+".png")
			_, err := run(t, "export", in, mid)
			require.NoError(t, err)
			_, err = run(t, "import", mid, back)
			require.NoError(t, err)

			img, err := pngimage.ReadFile(back)
			require.NoError(t, err)
			assert.Equal(t, pngimage.ColorRGB, img.ColorType())
			assert.Equal(t, hasher.PixelHash(orig, hasher.DefaultHexLen), hasher.PixelHash(img, hasher.DefaultHexLen))
		})
	}
}

func TestImportFitsWithinBounds(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 16, 8)
	out := filepath.Join(dir, "small.png")

	_, err := run(t, "import", in, out, "--max-width", "4", "--max-height", "4")
	require.NoError(t, err)
	img, err := pngimage.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width())
	assert.Equal(t, 2, img.Height())
}

func TestExportUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 2, 2)
	_, err := run(t, "export", in, filepath.Join(dir, "out.xyz"))
	assert.Error(t, err)
}

func TestOptimizeAndValidate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")
	writeGradient(t, filepath.Join(src, "a.png"), 32, 32)
	writeGradient(t, filepath.Join(src, "icons", "b.png"), 16, 8)

	_, err := run(t, "optimize", src, "-o", out, "-p", "best", "-w", "2")
	require.NoError(t, err)

	reportPath := filepath.Join(out, report.FileName)
	r, err := report.ReadJSON(reportPath)
	require.NoError(t, err)
	assert.Equal(t, "best", r.Profile)
	assert.Len(t, r.Images, 2)
	assert.Empty(t, validateReport(r, out))

	_, err = run(t, "validate", reportPath)
	require.NoError(t, err)
	_, err = run(t, "stats", out)
	require.NoError(t, err)

	// A rewritten output no longer matches its recorded hash and size.
	writeGradient(t, filepath.Join(out, "icons", "b.png"), 16, 9)
	errs := validateReport(r, out)
	assert.NotEmpty(t, errs)

	_, err = run(t, "validate", reportPath)
	assert.Error(t, err)
}

func TestValidateReportChecks(t *testing.T) {
	r := report.New("default")
	r.Version = 99
	r.Images["a"] = report.Entry{Width: 0, Height: 1, Path: "x.png"}
	r.Images["b"] = report.Entry{Width: 1, Height: 1, PixelHash: "00", Path: "x.png"}
	r.Stats.TotalImages = 5

	errs := validateReport(r, t.TempDir())
	joined := ""
	for _, e := range errs {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "unsupported report version")
	assert.Contains(t, joined, "invalid dimensions")
	assert.Contains(t, joined, "missing pixel hash")
	assert.Contains(t, joined, "already used")
	assert.Contains(t, joined, "file not found")
	assert.Contains(t, joined, "stats.total_images mismatch")
}

func TestCRCFlag(t *testing.T) {
	crcFlag = "critical-only"
	p, err := crcPolicy()
	require.NoError(t, err)
	assert.Equal(t, pngimage.CRCCriticalOnly, p)

	crcFlag = "sometimes"
	_, err = crcPolicy()
	assert.Error(t, err)
	crcFlag = "strict"
}
