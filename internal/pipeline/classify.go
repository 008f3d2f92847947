package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/model"
)

const classifySystemPrompt = "You are an assistant that identifies document types based on content."

const classifyClosedPrompt = `Based on the following text, identify the type of document. The possible types are:
- Travel Order
- Office Order
- Special Order

If the text does not match any of these categories, respond with "Unknown".

Text:
%s`

const classifyOpenPrompt = `Identify the type of document from the following text. Possible types are:
- travel order
- office order
- special order

Text:
%s`

// ClassifierOptions tunes the service calls made by the classifier.
type ClassifierOptions struct {
	Temperature       float64
	MaxTokens         int64 // closed-choice call
	FallbackMaxTokens int64 // open-ended call
	// Strict collapses any non-canonical final answer to Unknown.
	Strict bool
}

// Classifier assigns a DocumentType to cleaned text.
type Classifier struct {
	llm  llm.Completer
	opts ClassifierOptions
}

// NewClassifier creates a Classifier.
func NewClassifier(c llm.Completer, opts ClassifierOptions) *Classifier {
	return &Classifier{llm: c, opts: opts}
}

// classifyByKeyword matches the canonical titles in fixed order against the
// uppercased text.
func classifyByKeyword(text string) (model.DocumentType, bool) {
	upper := strings.ToUpper(text)
	for _, dt := range model.CanonicalTypes() {
		if strings.Contains(upper, dt.Keyword()) {
			return dt, true
		}
	}
	return "", false
}

// Classify runs up to three tiers: keyword match, a closed-choice service
// call, and an open-ended service call. It never makes more than two calls.
func (c *Classifier) Classify(ctx context.Context, text model.CleanedText) (model.DocumentType, error) {
	if dt, ok := classifyByKeyword(string(text)); ok {
		zap.L().Debug("pipeline: classified by keyword", zap.String("document_type", string(dt)))
		return dt, nil
	}

	reply, err := c.llm.Complete(ctx, llm.Request{
		Stage:       "classify",
		System:      classifySystemPrompt,
		Prompt:      fmt.Sprintf(classifyClosedPrompt, text),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: classify")
	}
	if dt := model.DocumentType(strings.TrimSpace(reply)); dt.IsCanonical() {
		return dt, nil
	}

	reply, err = c.llm.Complete(ctx, llm.Request{
		Stage:       "classify_fallback",
		System:      classifySystemPrompt,
		Prompt:      fmt.Sprintf(classifyOpenPrompt, text),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.FallbackMaxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: classify fallback")
	}

	return c.resolveOpenReply(strings.TrimSpace(reply)), nil
}

// resolveOpenReply maps the open-ended answer onto the canonical set where
// it matches case-insensitively. Anything else is returned as free text
// unless strict mode is on.
func (c *Classifier) resolveOpenReply(reply string) model.DocumentType {
	if reply == "" {
		return model.DocumentTypeUnknown
	}
	if dt, ok := model.ParseDocumentType(reply); ok {
		return dt
	}
	if c.opts.Strict {
		zap.L().Info("pipeline: non-canonical classification collapsed to unknown", zap.String("reply", reply))
		return model.DocumentTypeUnknown
	}
	return model.DocumentType(reply)
}
