// Package layout turns rendered page images into page-labeled text using a
// fixed header plus two-column template.
//
// The template is a constraint, not a layout detector: documents that do not
// follow it will have text split across the wrong regions.
package layout

import (
	"context"
	"image"
	"image/draw"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docintake/internal/model"
	"github.com/sells-group/docintake/internal/ocr"
)

// Region is a named box on a page.
type Region struct {
	Name model.RegionName
	Box  image.Rectangle
}

// PageRegions splits bounds into header (top 20% of the height, full width),
// left column and right column (remaining height, halves of the width).
func PageRegions(bounds image.Rectangle) []Region {
	w, h := bounds.Dx(), bounds.Dy()
	headerH := int(float64(h) * 0.2)
	half := w / 2
	x0, y0 := bounds.Min.X, bounds.Min.Y

	return []Region{
		{Name: model.RegionHeader, Box: image.Rect(x0, y0, x0+w, y0+headerH)},
		{Name: model.RegionLeftColumn, Box: image.Rect(x0, y0+headerH, x0+half, y0+h)},
		{Name: model.RegionRightColumn, Box: image.Rect(x0+half, y0+headerH, x0+w, y0+h)},
	}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// crop returns the part of img inside box. box is not validated.
func crop(img image.Image, box image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(box)
	}
	dst := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(dst, dst.Bounds(), img, box.Min, draw.Src)
	return dst
}

// ExtractRegion OCRs the part of img inside box as a single uniform block of
// text. Empty output is returned as "" with no error.
func ExtractRegion(ctx context.Context, engine ocr.Engine, img image.Image, box image.Rectangle) (string, error) {
	text, err := engine.Recognize(ctx, crop(img, box), ocr.PSMSingleBlock)
	if err != nil {
		return "", model.NewError(model.KindOCRError, "ocr region", eris.Wrapf(err, "layout: recognize %v", box))
	}
	return text, nil
}
