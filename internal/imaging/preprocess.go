// Package imaging prepares scanned page images for OCR.
//
// The pipeline is fixed: grayscale, 3x3 Gaussian blur, adaptive Gaussian
// threshold, polarity inversion, non-local-means denoising, then Canny edge
// suppression. Every stage works on *image.Gray with bounds at the origin.
package imaging

import (
	"image"
)

// Params tunes the preprocessing stages.
type Params struct {
	BlockSize      int     // adaptive threshold neighbourhood, odd
	ThresholdC     float64 // constant subtracted from the weighted mean
	DenoiseH       float64 // NLM filter strength; <= 0 skips denoising
	TemplateWindow int     // NLM patch size, odd
	SearchWindow   int     // NLM search area, odd
	CannyLow       float64
	CannyHigh      float64
}

// DefaultParams returns the tuning used for scanned administrative orders.
func DefaultParams() Params {
	return Params{
		BlockSize:      11,
		ThresholdC:     2,
		DenoiseH:       30,
		TemplateWindow: 7,
		SearchWindow:   21,
		CannyLow:       100,
		CannyHigh:      200,
	}
}

// withDefaults replaces unusable values with the defaults.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.BlockSize < 3 || p.BlockSize%2 == 0 {
		p.BlockSize = d.BlockSize
	}
	if p.TemplateWindow < 1 || p.TemplateWindow%2 == 0 {
		p.TemplateWindow = d.TemplateWindow
	}
	if p.SearchWindow < 1 || p.SearchWindow%2 == 0 {
		p.SearchWindow = d.SearchWindow
	}
	if p.CannyHigh <= 0 {
		p.CannyLow, p.CannyHigh = d.CannyLow, d.CannyHigh
	}
	if p.CannyLow > p.CannyHigh {
		p.CannyLow, p.CannyHigh = p.CannyHigh, p.CannyLow
	}
	return p
}

// Preprocess binarizes img with DefaultParams.
func Preprocess(img image.Image) *image.Gray {
	return PreprocessWith(img, DefaultParams())
}

// PreprocessWith binarizes img. The result has the same dimensions as img,
// text is foreground (white) and edge halos around strokes are cleared.
func PreprocessWith(img image.Image, p Params) *image.Gray {
	p = p.withDefaults()

	gray := Grayscale(img)
	blurred := GaussianBlur3(gray)
	binary := AdaptiveThreshold(blurred, p.BlockSize, p.ThresholdC)
	inverted := Invert(binary)

	denoised := inverted
	if p.DenoiseH > 0 {
		denoised = DenoiseNLM(inverted, p.DenoiseH, p.TemplateWindow, p.SearchWindow)
	}

	edges := Canny(denoised, p.CannyLow, p.CannyHigh)
	return SuppressEdges(denoised, edges)
}
