package model

import "strings"

// DocumentType is the classification label assigned to a processed document.
// Besides the canonical constants it may carry a free-text label returned by
// the open-ended classification fallback.
type DocumentType string

const (
	DocumentTypeTravelOrder  DocumentType = "Travel Order"
	DocumentTypeOfficeOrder  DocumentType = "Office Order"
	DocumentTypeSpecialOrder DocumentType = "Special Order"
	DocumentTypeUnknown      DocumentType = "Unknown"
)

// CanonicalTypes returns the canonical order types in keyword-match order.
func CanonicalTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeTravelOrder,
		DocumentTypeOfficeOrder,
		DocumentTypeSpecialOrder,
	}
}

// IsCanonical reports whether d is one of the three canonical order types.
func (d DocumentType) IsCanonical() bool {
	for _, c := range CanonicalTypes() {
		if d == c {
			return true
		}
	}
	return false
}

// Keyword returns the uppercase literal that identifies d in document text.
func (d DocumentType) Keyword() string {
	return strings.ToUpper(string(d))
}

// ParseDocumentType maps s onto a canonical type or Unknown, ignoring case
// and surrounding whitespace. Any other input is returned as a free-text
// label with ok=false.
func ParseDocumentType(s string) (DocumentType, bool) {
	s = strings.TrimSpace(s)
	for _, c := range append(CanonicalTypes(), DocumentTypeUnknown) {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return DocumentType(s), false
}
