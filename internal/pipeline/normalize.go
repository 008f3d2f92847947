package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/model"
)

const normalizeSystemPrompt = "You are a helpful assistant for text cleanup."

const normalizeUserPrompt = `Please clean up the following text by removing headers and footers, correcting OCR errors,
and maintaining readability. Ensure that all names, dates, document numbers, place or settings and other identifiable information remain intact.

Text:
%s`

// Normalizer asks the text-understanding service to clean raw OCR or DOCX
// text.
type Normalizer struct {
	llm         llm.Completer
	temperature float64
	maxTokens   int64
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(c llm.Completer, temperature float64, maxTokens int64) *Normalizer {
	return &Normalizer{llm: c, temperature: temperature, maxTokens: maxTokens}
}

// Normalize returns the service's cleanup of raw, trimmed. Any failure is
// normalization_failed.
func (n *Normalizer) Normalize(ctx context.Context, raw model.RawText) (model.CleanedText, error) {
	reply, err := n.llm.Complete(ctx, llm.Request{
		Stage:       "normalize",
		System:      normalizeSystemPrompt,
		Prompt:      fmt.Sprintf(normalizeUserPrompt, sanitize(string(raw))),
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
	})
	if err != nil {
		return "", model.NormalizationFailed(eris.Wrap(err, "pipeline: normalize"))
	}
	return model.CleanedText(strings.TrimSpace(reply)), nil
}

// sanitize composes s to NFC and drops control characters other than line
// breaks and tabs. OCR engines emit form feeds between pages.
func sanitize(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
