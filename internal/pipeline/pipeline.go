// Package pipeline turns a source document into an ExtractionResult:
// dispatch, normalize, then classify and extract fields.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docintake/internal/config"
	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/model"
)

// RawTextExtractor produces raw text for a source file.
type RawTextExtractor interface {
	ExtractRawText(ctx context.Context, src model.SourceFile) (model.RawText, error)
}

// Pipeline sequences the extraction stages for one document at a time. It
// holds no per-document state and is safe for concurrent use.
type Pipeline struct {
	dispatch   RawTextExtractor
	normalizer *Normalizer
	classifier *Classifier
	extractor  *FieldExtractor
	concurrent bool
}

// New creates a Pipeline whose service stages share c.
func New(d RawTextExtractor, c llm.Completer, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{
		dispatch:   d,
		normalizer: NewNormalizer(c, cfg.Temperature, cfg.NormalizeMaxTokens),
		classifier: NewClassifier(c, ClassifierOptions{
			Temperature:       cfg.Temperature,
			MaxTokens:         cfg.ClassifyMaxTokens,
			FallbackMaxTokens: cfg.ClassifyFallbackMaxTokens,
			Strict:            cfg.StrictClassification,
		}),
		extractor:  NewFieldExtractor(c, cfg.Temperature, cfg.ExtractMaxTokens),
		concurrent: cfg.ConcurrentAnalysis,
	}
}

// Process runs every stage for src. The first failing stage aborts the run
// and no partial result is returned.
func (p *Pipeline) Process(ctx context.Context, src model.SourceFile) (*model.ExtractionResult, error) {
	log := zap.L().With(zap.String("file", src.Name))
	log.Info("pipeline: starting extraction")
	start := time.Now()

	trackStage := func(name string, fn func() error) error {
		stageStart := time.Now()
		err := fn()
		duration := time.Since(stageStart).Milliseconds()
		if err != nil {
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.String("kind", string(model.KindOf(err))),
				zap.Int64("duration_ms", duration),
				zap.Error(err),
			)
			return err
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
		)
		return nil
	}

	var raw model.RawText
	if err := trackStage("dispatch", func() error {
		var err error
		raw, err = p.dispatch.ExtractRawText(ctx, src)
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: dispatch")
	}

	var cleaned model.CleanedText
	if err := trackStage("normalize", func() error {
		var err error
		cleaned, err = p.normalizer.Normalize(ctx, raw)
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize")
	}

	var (
		docType model.DocumentType
		fields  model.FieldRecord
	)
	classify := func(ctx context.Context) error {
		return trackStage("classify", func() error {
			var err error
			docType, err = p.classifier.Classify(ctx, cleaned)
			return err
		})
	}
	extract := func(ctx context.Context) error {
		return trackStage("extract", func() error {
			var err error
			fields, err = p.extractor.Extract(ctx, cleaned)
			return err
		})
	}

	if p.concurrent {
		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error { return classify(gCtx) })
		g.Go(func() error { return extract(gCtx) })
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "pipeline: analyze")
		}
	} else {
		if err := classify(ctx); err != nil {
			return nil, eris.Wrap(err, "pipeline: analyze")
		}
		if err := extract(ctx); err != nil {
			return nil, eris.Wrap(err, "pipeline: analyze")
		}
	}

	fields.Complete()

	log.Info("pipeline: extraction complete",
		zap.String("document_type", string(docType)),
		zap.Int("fields", fields.Len()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &model.ExtractionResult{
		DocumentType: docType,
		Fields:       fields,
		CleanedText:  cleaned,
	}, nil
}
