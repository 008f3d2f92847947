package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// TesseractOptions configures the tesseract CLI.
type TesseractOptions struct {
	BinPath     string // default "tesseract"
	Lang        string // default "eng"
	OEM         int    // engine mode; 3 is the engine default
	TessdataDir string
}

// Tesseract recognizes text by piping a PNG into the tesseract CLI.
type Tesseract struct {
	opts   TesseractOptions
	runner Runner
}

// NewTesseract creates a Tesseract engine.
func NewTesseract(opts TesseractOptions) *Tesseract {
	if opts.BinPath == "" {
		opts.BinPath = "tesseract"
	}
	if opts.Lang == "" {
		opts.Lang = "eng"
	}
	if opts.OEM < 0 || opts.OEM > 3 {
		opts.OEM = 3
	}
	return &Tesseract{opts: opts, runner: execRunner{}}
}

// args builds: tesseract stdin stdout -l <lang> --psm <n> --oem <n> [--tessdata-dir d]
func (t *Tesseract) args(psm PSM) []string {
	args := []string{
		"stdin", "stdout",
		"-l", t.opts.Lang,
		"--psm", strconv.Itoa(int(psm)),
		"--oem", strconv.Itoa(t.opts.OEM),
	}
	if t.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.opts.TessdataDir)
	}
	return args
}

// Recognize encodes img as PNG and returns tesseract's stdout. Empty output
// is not an error.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, psm PSM) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", eris.Wrap(err, "ocr: encode png")
	}

	out, errb, err := t.runner.Run(ctx, &buf, t.opts.BinPath, t.args(psm)...)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed: %s", strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}
