package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docintake/internal/config"
	"github.com/sells-group/docintake/internal/model"
	"github.com/sells-group/docintake/pkg/anthropic"
	"github.com/sells-group/docintake/pkg/vertex"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockVertex struct {
	mock.Mock
}

func (m *mockVertex) Generate(ctx context.Context, req vertex.GenerateRequest) (*vertex.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vertex.GenerateResponse), args.Error(1)
}

func (m *mockVertex) Close() error { return nil }

type funcCompleter func(ctx context.Context, req Request) (string, error)

func (f funcCompleter) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func TestAnthropicCompleter(t *testing.T) {
	mc := new(mockAnthropic)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 10 &&
			req.System == "sys" &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			req.Messages[0].Content == "prompt" &&
			req.Temperature != nil && *req.Temperature == 0.1
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Special Order"}},
		Usage:   anthropic.TokenUsage{InputTokens: 50, OutputTokens: 2},
	}, nil)

	c := NewAnthropicCompleter(mc, "claude-haiku-4-5-20251001")
	text, err := c.Complete(context.Background(), Request{
		Stage: "classify", System: "sys", Prompt: "prompt", Temperature: 0.1, MaxTokens: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Special Order", text)
	mc.AssertExpectations(t)
}

func TestAnthropicCompleter_Error(t *testing.T) {
	mc := new(mockAnthropic)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := NewAnthropicCompleter(mc, "m").Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestVertexCompleter(t *testing.T) {
	mv := new(mockVertex)
	mv.On("Generate", mock.Anything, mock.MatchedBy(func(req vertex.GenerateRequest) bool {
		return req.Model == "gemini-1.5-pro" &&
			req.System == "sys" &&
			req.Prompt == "prompt" &&
			req.MaxOutputTokens == 4000 &&
			req.Temperature != nil && *req.Temperature == float32(0.1)
	})).Return(&vertex.GenerateResponse{Text: "cleaned"}, nil)

	c := NewVertexCompleter(mv, "gemini-1.5-pro")
	text, err := c.Complete(context.Background(), Request{
		Stage: "normalize", System: "sys", Prompt: "prompt", Temperature: 0.1, MaxTokens: 4000,
	})
	require.NoError(t, err)
	assert.Equal(t, "cleaned", text)
	mv.AssertExpectations(t)
}

func TestGuard_PassesThrough(t *testing.T) {
	var got Request
	g := Guard(funcCompleter(func(_ context.Context, req Request) (string, error) {
		got = req
		return "reply", nil
	}), Options{})

	text, err := g.Complete(context.Background(), Request{Stage: "extract", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "reply", text)
	assert.Equal(t, "p", got.Prompt)
}

func TestGuard_WrapsErrorsAsServiceError(t *testing.T) {
	calls := 0
	g := Guard(funcCompleter(func(context.Context, Request) (string, error) {
		calls++
		return "", errors.New("quota exceeded")
	}), Options{})

	_, err := g.Complete(context.Background(), Request{Stage: "classify"})
	require.Error(t, err)
	assert.Equal(t, model.KindServiceError, model.KindOf(err))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, calls)
}

func TestGuard_Timeout(t *testing.T) {
	g := Guard(funcCompleter(func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := g.Complete(context.Background(), Request{Stage: "normalize"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, model.KindServiceError, model.KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGuard_RateLimiterHonoursContext(t *testing.T) {
	calls := 0
	g := Guard(funcCompleter(func(context.Context, Request) (string, error) {
		calls++
		return "ok", nil
	}), Options{RequestsPerMinute: 1})

	// burst of one goes through immediately
	_, err := g.Complete(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, Request{Stage: "extract"})
	require.Error(t, err)
	assert.Equal(t, model.KindServiceError, model.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestNew_Anthropic(t *testing.T) {
	cfg := &config.Config{
		Service:   config.ServiceConfig{Provider: "anthropic", TimeoutSecs: 30, RequestsPerMinute: 60},
		Anthropic: config.AnthropicConfig{Key: "sk-test", Model: "claude-sonnet-4-5-20250929"},
	}
	c, closeFn, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())

	g, ok := c.(*Guarded)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, g.timeout)
	assert.NotNil(t, g.limiter)
	assert.IsType(t, &AnthropicCompleter{}, g.next)
}

func TestNew_AnthropicMissingKey(t *testing.T) {
	cfg := &config.Config{Service: config.ServiceConfig{Provider: "anthropic"}}
	_, closeFn, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.NotNil(t, closeFn)
}

func TestNew_VertexMissingProject(t *testing.T) {
	cfg := &config.Config{
		Service: config.ServiceConfig{Provider: "vertex"},
		Vertex:  config.VertexConfig{Region: "us-central1"},
	}
	_, _, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex client")
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := &config.Config{Service: config.ServiceConfig{Provider: "openai"}}
	_, _, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "openai"`)
}
