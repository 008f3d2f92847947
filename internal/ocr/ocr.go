// Package ocr wraps the OCR engines and PDF rasterizers used by the
// extraction pipeline.
package ocr

import (
	"context"
	"image"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docintake/internal/config"
)

// PSM is a Tesseract page segmentation mode.
type PSM int

const (
	// PSMAuto lets the engine segment the page itself.
	PSMAuto PSM = 3
	// PSMSingleBlock treats the image as a single uniform block of text.
	PSMSingleBlock PSM = 6
)

// Engine recognizes text in a raster image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, psm PSM) (string, error)
}

// Renderer rasterizes every page of a PDF at the given resolution, in page
// order.
type Renderer interface {
	RenderPages(ctx context.Context, pdf []byte, dpi int) ([]image.Image, error)
}

// NewEngine creates an Engine based on config.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return NewTesseract(TesseractOptions{
			BinPath:     cfg.TesseractPath,
			Lang:        cfg.Lang,
			OEM:         cfg.OEM,
			TessdataDir: cfg.TessdataDir,
		}), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// NewRenderer creates a Renderer based on config.
func NewRenderer(cfg config.RenderConfig) (Renderer, error) {
	switch cfg.Provider {
	case "fitz", "":
		return NewFitzRenderer(cfg.MaxPages), nil
	case "pdftoppm":
		return NewPdftoppm(cfg.PdftoppmPath, cfg.MaxPages), nil
	default:
		return nil, eris.Errorf("ocr: unknown render provider %q", cfg.Provider)
	}
}
