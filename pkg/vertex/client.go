// Package vertex is a thin client for Gemini models on Vertex AI.
package vertex

import (
	"context"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client defines the Vertex AI operations used by the pipeline.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	Close() error
}

// GenerateRequest is a single-turn text generation request.
type GenerateRequest struct {
	Model           string
	System          string
	Prompt          string
	Temperature     *float32
	MaxOutputTokens int32
}

// GenerateResponse is the first candidate of a generation.
type GenerateResponse struct {
	Text         string
	FinishReason string
	Usage        TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int32
	CandidatesTokens int32
}

// LogUsage logs token usage with structured zap fields.
func (u TokenUsage) LogUsage(model, stage string) {
	zap.L().Info("vertex: token usage",
		zap.String("model", model),
		zap.String("stage", stage),
		zap.Int32("prompt_tokens", u.PromptTokens),
		zap.Int32("candidates_tokens", u.CandidatesTokens),
	)
}

type sdkClient struct {
	client *genai.Client
}

// NewClient connects to Vertex AI in project and region. An empty
// credentialsFile uses application default credentials.
func NewClient(ctx context.Context, project, region, credentialsFile string) (Client, error) {
	if project == "" || region == "" {
		return nil, eris.New("vertex: project and region are required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	c, err := genai.NewClient(ctx, project, region, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "vertex: new client")
	}
	return &sdkClient{client: c}, nil
}

func (c *sdkClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := newModel(c.client, req)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, eris.Wrap(err, "vertex: generate content")
	}

	out, err := fromGenaiResponse(resp)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sdkClient) Close() error {
	if err := c.client.Close(); err != nil {
		return eris.Wrap(err, "vertex: close client")
	}
	return nil
}

// newModel builds a per-request model handle so generation settings are
// never shared between concurrent calls.
func newModel(c *genai.Client, req GenerateRequest) *genai.GenerativeModel {
	model := c.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	model.SetCandidateCount(1)
	return model
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) (*GenerateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, eris.New("vertex: response has no candidates")
	}
	cand := resp.Candidates[0]

	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}

	out := &GenerateResponse{
		Text:         sb.String(),
		FinishReason: cand.FinishReason.String(),
	}
	if resp.UsageMetadata != nil {
		out.Usage = TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CandidatesTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return out, nil
}
