package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/model"
)

func TestExtract(t *testing.T) {
	mc := new(mockCompleter)
	mc.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Stage == "extract" &&
			req.System == extractSystemPrompt &&
			req.Temperature == 0.1 &&
			req.MaxTokens == 4000 &&
			strings.Contains(req.Prompt, "employee_names") &&
			strings.HasSuffix(req.Prompt, "Text:\nOFFICE ORDER No. 45")
	})).Return("document_no: 45\nseries_no: None\nemployee_names: [\"Ana Reyes\"]", nil).Once()

	e := NewFieldExtractor(mc, 0.1, 4000)
	rec, err := e.Extract(context.Background(), "OFFICE ORDER No. 45")
	require.NoError(t, err)
	assert.Equal(t, "45", rec.Value(model.FieldDocumentNo))
	v, ok := rec.Get(model.FieldSeriesNo)
	assert.True(t, ok)
	assert.Nil(t, v)
	names, _ := rec.EmployeeNames()
	assert.Equal(t, []string{"Ana Reyes"}, names)
	// not default-filled at this layer
	assert.False(t, rec.Has(model.FieldVenue))
	mc.AssertExpectations(t)
}

func TestExtract_PromptListsEveryField(t *testing.T) {
	for _, k := range model.FieldKeys() {
		assert.Contains(t, extractUserPrompt, k)
	}
}

func TestExtract_ServiceError(t *testing.T) {
	mc := new(mockCompleter)
	mc.On("Complete", mock.Anything, mock.Anything).
		Return("", model.ServiceError("extract", errors.New("unavailable"))).Once()

	_, err := NewFieldExtractor(mc, 0.1, 4000).Extract(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, model.KindServiceError, model.KindOf(err))
	assert.Contains(t, err.Error(), "pipeline: extract")
}
