package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []DocumentType{
		DocumentTypeTravelOrder,
		DocumentTypeOfficeOrder,
		DocumentTypeSpecialOrder,
	}, CanonicalTypes())

	assert.True(t, DocumentTypeSpecialOrder.IsCanonical())
	assert.False(t, DocumentTypeUnknown.IsCanonical())
	assert.False(t, DocumentType("Memorandum").IsCanonical())
}

func TestDocumentType_Keyword(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "TRAVEL ORDER", DocumentTypeTravelOrder.Keyword())
}

func TestParseDocumentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   DocumentType
		wantOK bool
	}{
		{"Travel Order", DocumentTypeTravelOrder, true},
		{"  office order\n", DocumentTypeOfficeOrder, true},
		{"SPECIAL ORDER", DocumentTypeSpecialOrder, true},
		{"unknown", DocumentTypeUnknown, true},
		{"Memorandum Circular", DocumentType("Memorandum Circular"), false},
	}
	for _, tt := range tests {
		got, ok := ParseDocumentType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}
