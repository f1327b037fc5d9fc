package encoder

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/AnyUserName/pngkit/internal/pngimage"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// toolEncoder shells out to a command-line encoder that reads a PNG file
// and writes its output to another file.
type toolEncoder struct {
	format string
	tool   string
	args   func(src, dst string) []string

	once sync.Once
	path string
}

// NewWebPEncoder uses cwebp. Install: apt install webp
func NewWebPEncoder(quality int) Encoder {
	return &toolEncoder{
		format: "webp",
		tool:   "cwebp",
		args: func(src, dst string) []string {
			if quality <= 0 || quality > 100 {
				return []string{"-lossless", "-z", "9", "-quiet", src, "-o", dst}
			}
			return []string{"-q", fmt.Sprint(quality), "-m", "6", "-quiet", src, "-o", dst}
		},
	}
}

// NewAVIFEncoder uses avifenc. Install: apt install libavif-bin
func NewAVIFEncoder(quality int) Encoder {
	return &toolEncoder{
		format: "avif",
		tool:   "avifenc",
		args: func(src, dst string) []string {
			if quality <= 0 || quality > 100 {
				return []string{"--lossless", src, dst}
			}
			// avifenc quantizers run 0 (best) to 63.
			q := fmt.Sprint(63 - quality*63/100)
			return []string{"--min", q, "--max", q, "--speed", "6", src, dst}
		},
	}
}

func (e *toolEncoder) Format() string    { return e.format }
func (e *toolEncoder) Extension() string { return e.format }

func (e *toolEncoder) Available() bool {
	e.once.Do(func() {
		if path, err := exec.LookPath(e.tool); err == nil {
			e.path = path
		}
	})
	return e.path != ""
}

func (e *toolEncoder) Encode(img *pngimage.Image) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%s not found in PATH", e.tool)
	}
	// Fast settings: the tool recompresses anyway.
	b, err := img.EncodeWith(pngimage.EncodeOptions{Level: pngimage.BestSpeed})
	if err != nil {
		return nil, err
	}

	id := tempCounter.Add(1)
	dir, err := os.MkdirTemp("", fmt.Sprintf("pngkit_%s_%d_*", e.format, id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	defer os.RemoveAll(dir)
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "out."+e.format)
	if err := os.WriteFile(src, b, 0o600); err != nil {
		return nil, fmt.Errorf("write temp png: %w", err)
	}

	cmd := exec.Command(e.path, e.args(src, dst)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", e.tool, err, string(out))
	}
	return os.ReadFile(dst)
}
