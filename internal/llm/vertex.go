package llm

import (
	"context"

	"github.com/sells-group/docintake/pkg/vertex"
)

// VertexCompleter sends requests to a Gemini model on Vertex AI.
type VertexCompleter struct {
	client vertex.Client
	model  string
}

// NewVertexCompleter creates a VertexCompleter for model.
func NewVertexCompleter(client vertex.Client, model string) *VertexCompleter {
	return &VertexCompleter{client: client, model: model}
}

// Complete implements Completer.
func (v *VertexCompleter) Complete(ctx context.Context, req Request) (string, error) {
	temp := float32(req.Temperature)
	resp, err := v.client.Generate(ctx, vertex.GenerateRequest{
		Model:           v.model,
		System:          req.System,
		Prompt:          req.Prompt,
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogUsage(v.model, req.Stage)
	return resp.Text, nil
}
