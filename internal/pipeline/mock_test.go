package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/docintake/internal/llm"
	"github.com/sells-group/docintake/internal/model"
)

// --- Completer Mock ---

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func stage(name string) any {
	return mock.MatchedBy(func(req llm.Request) bool { return req.Stage == name })
}

// --- Dispatcher Mock ---

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) ExtractRawText(ctx context.Context, src model.SourceFile) (model.RawText, error) {
	args := m.Called(ctx, src)
	return args.Get(0).(model.RawText), args.Error(1)
}

// funcCompleter adapts a function for tests that compute replies from the prompt.
type funcCompleter func(ctx context.Context, req llm.Request) (string, error)

func (f funcCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}
