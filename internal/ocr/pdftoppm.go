package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pdftoppm rasterizes PDFs with the Poppler pdftoppm CLI.
type Pdftoppm struct {
	binPath  string
	maxPages int
	runner   Runner
}

// NewPdftoppm creates a Pdftoppm renderer. If binPath is empty, "pdftoppm" is used.
func NewPdftoppm(binPath string, maxPages int) *Pdftoppm {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	return &Pdftoppm{binPath: binPath, maxPages: maxPages, runner: execRunner{}}
}

// RenderPages runs pdftoppm -r <dpi> -png - <tmp>/page and decodes the pages
// it writes, ordered by page number.
func (p *Pdftoppm) RenderPages(ctx context.Context, pdf []byte, dpi int) ([]image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "docintake-pp-*")
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create temp dir")
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			zap.L().Warn("ocr: remove temp dir", zap.String("dir", tmpDir), zap.Error(err))
		}
	}()

	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if p.maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.maxPages))
	}
	prefix := filepath.Join(tmpDir, "page")
	args = append(args, "-", prefix)

	_, errb, err := p.runner.Run(ctx, bytes.NewReader(pdf), p.binPath, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: pdftoppm failed: %s", strings.TrimSpace(string(errb)))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, eris.Wrap(err, "ocr: list rendered pages")
	}
	if len(matches) == 0 {
		return nil, eris.New("ocr: pdftoppm produced no images")
	}
	sortByPageNumber(matches, prefix)

	pages := make([]image.Image, 0, len(matches))
	for _, path := range matches {
		img, err := decodePNG(path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// sortByPageNumber orders prefix-N.png paths numerically. pdftoppm zero-pads
// N to the width of the page count, but numeric sorting does not rely on it.
func sortByPageNumber(paths []string, prefix string) {
	num := func(p string) int {
		s := strings.TrimSuffix(strings.TrimPrefix(p, prefix+"-"), ".png")
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: open %s", filepath.Base(path))
	}
	defer f.Close() //nolint:errcheck

	img, err := png.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: decode %s", filepath.Base(path))
	}
	return img, nil
}
