package model

// ExtractionResult is the composed output of one pipeline run.
type ExtractionResult struct {
	DocumentType DocumentType `json:"document_type" yaml:"document_type"`
	Fields       FieldRecord  `json:"extracted_fields" yaml:"extracted_fields"`
	CleanedText  CleanedText  `json:"cleaned_text" yaml:"cleaned_text"`
}
