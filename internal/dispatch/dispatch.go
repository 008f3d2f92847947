// Package dispatch routes a source file to the raw-text producer for its
// format.
package dispatch

import (
	"context"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder

	"github.com/sells-group/docintake/internal/docx"
	"github.com/sells-group/docintake/internal/imaging"
	"github.com/sells-group/docintake/internal/layout"
	"github.com/sells-group/docintake/internal/model"
	"github.com/sells-group/docintake/internal/ocr"
)

// DefaultDPI is the resolution scanned PDF pages are rendered at.
const DefaultDPI = 150

// Options configures a Dispatcher.
type Options struct {
	DPI    int
	Params imaging.Params
}

// Dispatcher produces RawText for PDFs, DOCX files and raster images.
type Dispatcher struct {
	engine    ocr.Engine
	renderer  ocr.Renderer
	assembler *layout.Assembler
	dpi       int
	params    imaging.Params
}

// New creates a Dispatcher. A zero DPI uses DefaultDPI.
func New(engine ocr.Engine, renderer ocr.Renderer, opts Options) *Dispatcher {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	return &Dispatcher{
		engine:    engine,
		renderer:  renderer,
		assembler: layout.NewAssembler(engine, opts.Params),
		dpi:       opts.DPI,
		params:    opts.Params,
	}
}

// ExtractRawText returns the raw text of src. Unsupported extensions fail
// before any file access or OCR.
func (d *Dispatcher) ExtractRawText(ctx context.Context, src model.SourceFile) (model.RawText, error) {
	start := time.Now()
	format := src.Format()

	var (
		raw model.RawText
		err error
	)
	switch format {
	case model.FormatPDF:
		raw, err = d.fromPDF(ctx, src.Path)
	case model.FormatDOCX:
		raw, err = d.fromDOCX(src.Path)
	case model.FormatImage:
		raw, err = d.fromImage(ctx, src.Path)
	default:
		return "", model.UnsupportedFormatError(src.Ext)
	}
	if err != nil {
		return "", err
	}

	zap.L().Info("dispatch: raw text extracted",
		zap.String("file", src.Name),
		zap.String("format", string(format)),
		zap.Int("chars", len(raw)),
		zap.Duration("duration", time.Since(start)),
	)
	return raw, nil
}

func (d *Dispatcher) fromPDF(ctx context.Context, path string) (model.RawText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", model.RenderError(eris.Wrap(err, "dispatch: read pdf"))
	}

	pages, err := d.renderer.RenderPages(ctx, data, d.dpi)
	if err != nil {
		return "", model.RenderError(eris.Wrap(err, "dispatch: render pdf"))
	}

	return d.assembler.Assemble(ctx, pages)
}

func (d *Dispatcher) fromDOCX(path string) (model.RawText, error) {
	paras, err := docx.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "dispatch: read docx")
	}
	return model.RawText(strings.Join(paras, "\n")), nil
}

func (d *Dispatcher) fromImage(ctx context.Context, path string) (model.RawText, error) {
	img, err := decodeImage(path)
	if err != nil {
		return "", err
	}

	prepared := imaging.PreprocessWith(img, d.params)
	text, err := d.engine.Recognize(ctx, prepared, ocr.PSMAuto)
	if err != nil {
		return "", model.NewError(model.KindOCRError, "ocr image", eris.Wrap(err, "dispatch: recognize image"))
	}
	return model.RawText(text), nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewError(model.KindImageError, "decode", eris.Wrap(err, "dispatch: open image"))
	}
	defer f.Close() //nolint:errcheck

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, model.NewError(model.KindImageError, "decode", eris.Wrap(err, "dispatch: decode image"))
	}
	return img, nil
}
