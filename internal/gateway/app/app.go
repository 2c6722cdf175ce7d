package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interviewprep/internal/gateway/config"
	"interviewprep/internal/gateway/handler"
	"interviewprep/internal/gateway/handler/rpc"
	"interviewprep/internal/gateway/server"
	"interviewprep/internal/gateway/service/live"
	"interviewprep/internal/gateway/service/prep"
	"interviewprep/internal/gateway/service/resume"
	"interviewprep/internal/llm"
	llmclient "interviewprep/internal/llm/client"
	"interviewprep/internal/observability"
)

type App struct {
	server *server.Server
	stores *gatewayStores
	llm    llmclient.Client
	stats  *llm.PhaseStats
	live   *live.Service

	stopReaper context.CancelFunc
	reaperDone chan struct{}
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if !observability.SetLevel(cfg.LogLevel) {
		observability.Logger().Warn("unknown log level, keeping current", "log_level", cfg.LogLevel)
	}

	// Dependencies
	stores, err := initStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stats := llm.NewPhaseStats()
	gen, err := NewLLM(ctx, cfg, stats)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	resumeSvc := resume.New(stores.resumes, resume.Config{
		MaxBytes:     cfg.Interview.MaxResumeBytes,
		CacheEntries: cfg.Cache.ResumeEntries,
	})
	prepSvc := prep.New(stores.sessions, gen, cfg.Interview.QuestionCount)
	liveSvc := live.New(gen, resumeSvc, live.Config{
		TurnLimit: cfg.Interview.TurnLimit,
		IdleTTL:   cfg.Interview.IdleTTL,
	})

	// Routing & Server
	router := server.NewRouter(server.Handlers{
		Sessions:  handler.NewSessionHandler(prepSvc),
		Interview: handler.NewInterviewHandler(liveSvc, resumeSvc),
		Live:      rpc.NewLiveHandler(liveSvc),
		RPC:       rpc.NewInterviewHandler(liveSvc, prepSvc),
	}, cfg.CORS.AllowedOrigins)

	return &App{
		server: server.New(cfg.Port, router),
		stores: stores,
		llm:    gen,
		stats:  stats,
		live:   liveSvc,
	}, nil
}

// NewLLM builds the configured provider client wrapped in the middleware
// chain. Failures pass through unchanged; retrying is the caller's decision.
// hooks observe every call.
func NewLLM(ctx context.Context, cfg *config.Config, hooks ...llm.PromptHook) (llmclient.Client, error) {
	var base llmclient.Client
	if cfg.UseFakeLLM() {
		observability.Logger().Warn("llm: using offline fake client")
		base = llmclient.NewFakeClient()
	} else {
		g, err := llmclient.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		base = g
	}
	return llm.Wrap(base,
		llm.RateLimitPerMinute(cfg.LLM.RequestsPerMinute),
		llm.WithLogging(observability.Logger()),
		llm.WithHooks(hooks...),
	), nil
}

func (a *App) Start() error {
	reaperCtx, cancel := context.WithCancel(context.Background())
	a.stopReaper = cancel
	a.reaperDone = make(chan struct{})
	go func() {
		defer close(a.reaperDone)
		a.live.RunReaper(reaperCtx, time.Minute)
	}()
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.stopReaper != nil {
		a.stopReaper()
		<-a.reaperDone
	}
	a.live.Close()
	for phase, c := range a.stats.Snapshot() {
		observability.Logger().Info("llm usage", "phase", phase,
			"calls", c.Calls, "failures", c.Failures,
			"prompt_bytes", c.PromptBytes, "response_bytes", c.ResponseBytes)
	}
	if err := a.llm.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.stores.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
