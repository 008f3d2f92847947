package layout

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintake/internal/imaging"
	"github.com/sells-group/docintake/internal/model"
	"github.com/sells-group/docintake/internal/ocr"
)

// Assembler drives region OCR across the pages of one document.
type Assembler struct {
	engine ocr.Engine
	params imaging.Params
}

// NewAssembler creates an Assembler that preprocesses pages with params.
func NewAssembler(engine ocr.Engine, params imaging.Params) *Assembler {
	return &Assembler{engine: engine, params: params}
}

// Assemble preprocesses every page, OCRs its header, left column and right
// column in that order, and concatenates one labeled block per page:
//
//	\n--- Page N ---\nHeader:\n<h>\n\nLeft Column:\n<l>\n\nRight Column:\n<r>
func (a *Assembler) Assemble(ctx context.Context, pages []image.Image) (model.RawText, error) {
	var sb strings.Builder
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "layout: assemble cancelled")
		}

		start := time.Now()
		prepared := imaging.PreprocessWith(page, a.params)

		texts := make(map[model.RegionName]string, 3)
		for _, r := range PageRegions(prepared.Bounds()) {
			text, err := ExtractRegion(ctx, a.engine, prepared, r.Box)
			if err != nil {
				return "", eris.Wrapf(err, "layout: page %d %s", i+1, r.Name)
			}
			texts[r.Name] = text
		}

		writePageBlock(&sb, i+1, texts)

		zap.L().Debug("layout: page assembled",
			zap.Int("page", i+1),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return model.RawText(sb.String()), nil
}

func writePageBlock(sb *strings.Builder, n int, texts map[model.RegionName]string) {
	fmt.Fprintf(sb, "\n--- Page %d ---\n", n)
	fmt.Fprintf(sb, "%s:\n%s\n\n", model.RegionHeader.Label(), texts[model.RegionHeader])
	fmt.Fprintf(sb, "%s:\n%s\n\n", model.RegionLeftColumn.Label(), texts[model.RegionLeftColumn])
	fmt.Fprintf(sb, "%s:\n%s", model.RegionRightColumn.Label(), texts[model.RegionRightColumn])
}
