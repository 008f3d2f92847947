package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/model"
)

const extractSystemPrompt = "You are an assistant that extracts structured information from text."

const extractUserPrompt = `Extract the following fields from the text:
document_no (only numbers)
series_no (series year, year issued)
date_issued
from_date (start of the event, inclusive date)
to_date (finish of the event, inclusive date)
subject (purpose)
description (main body)
venue (place where the event to be held)
destination (categorize into 'Regional', 'National', or 'International' based on Region VIII)
employee_names: [] (return as a list of strings with only first and last names, remove middle initials, remove titles like Ms, Mr, Dr, etc. )

Write one field per line as "field_name: value".
If a field is missing, return "None" for that field.

Text:
%s`

// FieldExtractor pulls the fixed field schema out of cleaned text.
type FieldExtractor struct {
	llm         llm.Completer
	temperature float64
	maxTokens   int64
}

// NewFieldExtractor creates a FieldExtractor.
func NewFieldExtractor(c llm.Completer, temperature float64, maxTokens int64) *FieldExtractor {
	return &FieldExtractor{llm: c, temperature: temperature, maxTokens: maxTokens}
}

// Extract sends the extraction instruction and parses the reply. Fields the
// service does not emit are absent from the record.
func (e *FieldExtractor) Extract(ctx context.Context, text model.CleanedText) (model.FieldRecord, error) {
	reply, err := e.llm.Complete(ctx, llm.Request{
		Stage:       "extract",
		System:      extractSystemPrompt,
		Prompt:      fmt.Sprintf(extractUserPrompt, text),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return model.FieldRecord{}, eris.Wrap(err, "pipeline: extract")
	}

	rec := ParseFieldReply(reply)
	zap.L().Debug("pipeline: fields extracted", zap.Int("fields", rec.Len()))
	return rec, nil
}
