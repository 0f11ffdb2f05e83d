package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kirillkom/medical-query-assistant/internal/config"
	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
	"github.com/kirillkom/medical-query-assistant/internal/core/ports"
	"github.com/kirillkom/medical-query-assistant/internal/core/usecase"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/answer/fastgpt"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/answer/simulated"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/medical-query-assistant/internal/observability/logging"
)

type Options struct {
	Service string
	// LogOutput defaults to stdout. Stdio transports pass stderr.
	LogOutput io.Writer
	Observer  ports.QueryObserver
	// DisableEvents skips the NATS connection even when NATS_URL is set.
	DisableEvents bool
}

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Messages policy.Messages
	Fetcher  ports.AnswerFetcher
	Events   *nats.EventStream

	observer ports.QueryObserver
	closeFn  func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	service := opts.Service
	if service == "" {
		service = "medical-query-assistant"
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := logging.NewLogger(out, service, cfg.LogLevel)

	messages, err := policy.LoadMessages(cfg.MessageLocale)
	if err != nil {
		return nil, fmt.Errorf("load message catalog: %w", err)
	}

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Messages: messages,
		Fetcher:  fetcher,
		observer: opts.Observer,
	}

	if cfg.NATSURL != "" && !opts.DisableEvents {
		events, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.EventStreamConfig(), logger),
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init query event stream: %w", err)
		}
		app.Events = events
		app.closeFn = events.Close
	}

	if ctx.Err() != nil {
		app.Close()
		return nil, ctx.Err()
	}
	return app, nil
}

func newFetcher(cfg config.Config, logger *slog.Logger) (ports.AnswerFetcher, error) {
	switch cfg.AnswerBackend {
	case config.BackendFastGPT:
		rc := resilience.AnswerBackendConfig(cfg.FastGPTRetryMaxAttempts, cfg.FastGPTBreakerEnabled, cfg.RequestTimeout())
		return fastgpt.New(fastgpt.Options{
			Endpoint: cfg.FastGPTAPIURL,
			APIKey:   cfg.FastGPTAPIKey,
			Timeout:  cfg.RequestTimeout(),
			Executor: resilience.NewExecutor(rc, logger),
			Logger:   logger,
		}), nil
	case config.BackendSimulated, "":
		return simulated.New(cfg.SimulatedDelay(), cfg.SimulatedJitter()), nil
	default:
		return nil, fmt.Errorf("unsupported answer backend %q", cfg.AnswerBackend)
	}
}

// NewController builds the controller owned by one UI session. view and
// presenter may be nil.
func (a *App) NewController(sessionID string, view ports.ResultView, presenter ports.NoticePresenter) *usecase.QueryController {
	opts := usecase.ControllerOptions{
		View:      view,
		Presenter: presenter,
		Observer:  a.observer,
		SessionID: sessionID,
		Logger:    a.Logger,
	}
	if a.Events != nil {
		opts.Events = a.Events
	}
	return usecase.NewQueryController(
		policy.NewInputValidator(a.Config.MaxQueryLength),
		policy.NewRateLimiter(a.Config.RateLimitMaxRequests, a.Config.RateLimitWindow()),
		policy.NewErrorClassifier(a.Messages).WithMaxLength(a.Config.MaxQueryLength),
		a.Fetcher,
		opts,
	)
}

// LogWelcome writes the start-up banner.
func (a *App) LogWelcome() {
	a.Logger.Info("医学智能检索系统已启动",
		"answer_backend", a.Config.AnswerBackend,
		"locale", a.Config.MessageLocale,
		"max_query_length", a.Config.MaxQueryLength,
		"rate_limit", fmt.Sprintf("%d/%s", a.Config.RateLimitMaxRequests, a.Config.RateLimitWindow()),
		"events_enabled", a.Events != nil,
	)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
