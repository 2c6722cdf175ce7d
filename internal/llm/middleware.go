package llm

import (
	"context"
	"log/slog"
	"time"

	llmclient "interviewprep/internal/llm/client"
	"interviewprep/internal/observability"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, logging, hooks, etc.).
type Middleware func(llmclient.Client) llmclient.Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.Client, mws ...Middleware) llmclient.Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits request rate using the quota limiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &rateLimited{next: next, rl: newQuotaLimiter(rps, burst)}
	}
}

// RateLimitPerMinute is RateLimit expressed in requests per minute, the unit
// provider quotas are published in.
func RateLimitPerMinute(rpm int) Middleware {
	if rpm <= 0 {
		return RateLimit(0, 0)
	}
	return RateLimit(float64(rpm)/60.0, 1)
}

type rateLimited struct {
	next llmclient.Client
	rl   *quotaLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, prompt)
}

// -------- Logging & Hooks --------

// WithLogging logs request size, latency and errors. A nil logger uses the
// request-scoped logger from the context.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.Client
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateText(ctx context.Context, prompt string) (string, error) {
	logger := l.log
	if logger == nil {
		logger = observability.LoggerFromContext(ctx)
	}
	logger = logger.With("phase", PhaseFrom(ctx), "client", l.next.Name())
	start := time.Now()
	logger.Debug("llm request", "prompt_bytes", len(prompt), "prompt_tokens", llmclient.CountTokens(prompt))
	text, err := l.next.GenerateText(ctx, prompt)
	if err != nil {
		logger.Warn("llm error", "error", err, "elapsed", time.Since(start))
		return text, err
	}
	logger.Info("llm response", "response_bytes", len(text), "elapsed", time.Since(start))
	return text, nil
}

// WithHooks calls Before/After around GenerateText on every hook in
// always and on the hook carried by the context, if any.
func WithHooks(always ...PromptHook) Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &hooked{next: next, always: always}
	}
}

type hooked struct {
	next   llmclient.Client
	always []PromptHook
}

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) GenerateText(ctx context.Context, prompt string) (string, error) {
	hooks := h.always
	if hook := HookFrom(ctx); hook != nil {
		hooks = append(hooks[:len(hooks):len(hooks)], hook)
	}
	phase := PhaseFrom(ctx)
	for _, hook := range hooks {
		hook.Before(ctx, phase, prompt)
	}
	text, err := h.next.GenerateText(ctx, prompt)
	for _, hook := range hooks {
		hook.After(ctx, phase, text, err)
	}
	return text, err
}
