package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintake/internal/config"
	"github.com/sells-group/docintake/internal/dispatch"
	"github.com/sells-group/docintake/internal/imaging"
	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/ocr"
	"github.com/sells-group/docintake/internal/pipeline"
)

// pipelineEnv holds the wired pipeline and whatever must be released when
// the command exits.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	closeLLM func() error
}

// Close releases the text service client.
func (pe *pipelineEnv) Close() {
	if pe.closeLLM == nil {
		return
	}
	if err := pe.closeLLM(); err != nil {
		zap.L().Warn("close text service client", zap.Error(err))
	}
}

// initPipeline validates cfg for mode, builds the OCR engine, renderer and
// text service, and assembles the Pipeline. Callers should defer
// env.Close().
func initPipeline(ctx context.Context, c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	engine, err := ocr.NewEngine(c.OCR)
	if err != nil {
		return nil, eris.Wrap(err, "init ocr engine")
	}
	renderer, err := ocr.NewRenderer(c.Render)
	if err != nil {
		return nil, eris.Wrap(err, "init pdf renderer")
	}

	completer, closeLLM, err := llm.New(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "init text service")
	}

	d := dispatch.New(engine, renderer, dispatch.Options{
		DPI:    c.Render.DPI,
		Params: preprocessParams(c.Preprocess),
	})

	zap.L().Debug("pipeline initialized",
		zap.String("mode", mode),
		zap.String("service", c.Service.Provider),
		zap.String("ocr", c.OCR.Provider),
		zap.String("renderer", c.Render.Provider),
	)

	return &pipelineEnv{
		Pipeline: pipeline.New(d, completer, c.Pipeline),
		closeLLM: closeLLM,
	}, nil
}

func preprocessParams(p config.PreprocessConfig) imaging.Params {
	return imaging.Params{
		BlockSize:      p.BlockSize,
		ThresholdC:     p.ThresholdC,
		DenoiseH:       p.DenoiseH,
		TemplateWindow: p.TemplateWindow,
		SearchWindow:   p.SearchWindow,
		CannyLow:       p.CannyLow,
		CannyHigh:      p.CannyHigh,
	}
}
