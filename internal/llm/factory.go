package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docintake/internal/config"
	"github.com/sells-group/docintake/pkg/anthropic"
	"github.com/sells-group/docintake/pkg/vertex"
)

// New builds the guarded Completer selected by cfg.Service.Provider. The
// returned close function releases provider connections and is never nil.
func New(ctx context.Context, cfg *config.Config) (Completer, func() error, error) {
	noop := func() error { return nil }

	var (
		base    Completer
		closeFn = noop
	)
	switch cfg.Service.Provider {
	case "anthropic", "":
		if cfg.Anthropic.Key == "" {
			return nil, noop, eris.New("llm: anthropic.key is required")
		}
		base = NewAnthropicCompleter(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	case "vertex":
		client, err := vertex.NewClient(ctx, cfg.Vertex.Project, cfg.Vertex.Region, cfg.Vertex.CredentialsFile)
		if err != nil {
			return nil, noop, eris.Wrap(err, "llm: vertex client")
		}
		base = NewVertexCompleter(client, cfg.Vertex.Model)
		closeFn = client.Close
	default:
		return nil, noop, eris.Errorf("llm: unknown provider %q", cfg.Service.Provider)
	}

	return Guard(base, Options{
		Timeout:           time.Duration(cfg.Service.TimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Service.RequestsPerMinute,
	}), closeFn, nil
}
