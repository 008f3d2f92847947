// Package llm exposes the text-understanding service as a single Completer
// capability, independent of the provider behind it.
package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/docintake/internal/model"
)

// Request is one instruction + prompt exchange.
type Request struct {
	// Stage names the caller for logs and error ops ("normalize", "classify", ...).
	Stage       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Completer sends a prompt to the text-understanding service and returns
// the generated text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options bounds outbound calls.
type Options struct {
	// Timeout applies to each call. Zero means no timeout beyond ctx.
	Timeout time.Duration
	// RequestsPerMinute paces calls. Zero means unlimited.
	RequestsPerMinute int
}

// Guarded wraps a Completer with a per-call timeout, optional pacing, and
// error classification. Failures are never retried.
type Guarded struct {
	next    Completer
	timeout time.Duration
	limiter *rate.Limiter
}

// Guard wraps next with opts.
func Guard(next Completer, opts Options) *Guarded {
	g := &Guarded{next: next, timeout: opts.Timeout}
	if opts.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return g
}

// Complete implements Completer. Every failure is a service_error.
func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	op := req.Stage
	if op == "" {
		op = "complete"
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", model.ServiceError(op, eris.Wrap(err, "llm: wait for rate limiter"))
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.next.Complete(ctx, req)
	if err != nil {
		zap.L().Warn("llm: completion failed",
			zap.String("stage", req.Stage),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", model.ServiceError(op, eris.Wrapf(err, "llm: %s", op))
	}

	zap.L().Debug("llm: completion ok",
		zap.String("stage", req.Stage),
		zap.Duration("duration", time.Since(start)),
		zap.Int("reply_chars", len(text)),
	)
	return text, nil
}
