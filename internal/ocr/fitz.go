package ocr

import (
	"bytes"
	"context"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FitzRenderer rasterizes PDFs in-process with MuPDF. pdfcpu validates the
// document first so corrupt uploads fail with a readable message instead of
// a MuPDF error code.
type FitzRenderer struct {
	maxPages int
}

// NewFitzRenderer creates a FitzRenderer. maxPages <= 0 renders every page.
func NewFitzRenderer(maxPages int) *FitzRenderer {
	return &FitzRenderer{maxPages: maxPages}
}

// PageCount validates pdf and returns its page count.
func PageCount(pdf []byte) (int, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, eris.Wrap(err, "ocr: read pdf structure")
	}
	return n, nil
}

// RenderPages returns one RGBA image per page at dpi, in page order.
func (f *FitzRenderer) RenderPages(ctx context.Context, pdf []byte, dpi int) ([]image.Image, error) {
	total, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, eris.New("ocr: pdf has no pages")
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: open pdf")
	}
	defer doc.Close() //nolint:errcheck

	n := doc.NumPage()
	if f.maxPages > 0 && n > f.maxPages {
		zap.L().Warn("ocr: truncating pdf to max pages",
			zap.Int("pages", n),
			zap.Int("max_pages", f.maxPages),
		)
		n = f.maxPages
	}

	pages := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ocr: render cancelled")
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, eris.Wrapf(err, "ocr: render page %d", i+1)
		}
		pages = append(pages, img)
	}

	zap.L().Debug("ocr: rendered pdf",
		zap.Int("pages", len(pages)),
		zap.Int("dpi", dpi),
	)
	return pages, nil
}
