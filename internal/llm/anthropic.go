package llm

import (
	"context"

	"github.com/sells-group/docintake/pkg/anthropic"
)

// AnthropicCompleter sends requests to a Claude model.
type AnthropicCompleter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompleter creates an AnthropicCompleter for model.
func NewAnthropicCompleter(client anthropic.Client, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model}
}

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(a.model, req.Stage)
	return resp.Text(), nil
}
