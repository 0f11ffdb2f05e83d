package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/medical-query-assistant/internal/adapters/web"
	"github.com/kirillkom/medical-query-assistant/internal/config"
	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
	"github.com/kirillkom/medical-query-assistant/internal/observability/metrics"
)

type Dependencies struct {
	NewController ControllerFactory
	Renderer      *web.Renderer
	Contract      *Contract
	Metrics       *metrics.HTTPServerMetrics
	Logger        *slog.Logger
	ServiceName   string
}

type Router struct {
	cfg      config.Config
	renderer *web.Renderer
	contract *Contract
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
	service  string

	maxLength    int
	defaultLimit int

	webSessions *sessionStore
	apiSessions *sessionStore
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	service := deps.ServiceName
	if service == "" {
		service = "medq-api"
	}

	rt := &Router{
		cfg:      cfg,
		renderer: deps.Renderer,
		contract: deps.Contract,
		metrics:  deps.Metrics,
		logger:   logger,
		service:  service,

		maxLength: policy.NewInputValidator(cfg.MaxQueryLength).MaxLength(),
	}
	rt.defaultLimit, _ = policy.NewRateLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow()).Limit()

	var sm sessionMetrics
	if deps.Metrics != nil {
		sm = deps.Metrics
	}
	idle := cfg.SessionIdleTTL()
	rt.webSessions = newSessionStore(idle, newWebSessionFactory(deps.NewController, deps.Renderer, cfg.NoticeTTL(), logger), sm)
	rt.apiSessions = newSessionStore(idle, newAPISessionFactory(deps.NewController), nil)
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(rt.logger))
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(rt.service, next)
		})
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Get("/healthz", rt.healthz)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))
	if rt.contract != nil {
		r.Get("/openapi.yaml", rt.contract.serveSpec)
	}

	r.Get("/", rt.index)
	r.Post("/clear", rt.clear)
	r.Post("/notice/dismiss", rt.dismissNotice)

	r.Group(func(r chi.Router) {
		r.Use(rt.trafficControl)
		r.Post("/query", rt.submitQuery)

		if rt.contract != nil {
			r.With(rt.contract.middleware).Post("/v1/query", rt.apiQuery)
		} else {
			r.Post("/v1/query", rt.apiQuery)
		}
	})

	return r
}

func (rt *Router) trafficControl(next http.Handler) http.Handler {
	var onShed shedRecorder
	if rt.metrics != nil {
		onShed = rt.metrics.RecordShed
	}
	gated := backpressureWithShed(next, rt.cfg.APIMaxInFlight, rt.cfg.APIQueueWait(), onShed)
	return rateLimitMiddleware(gated, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onShed)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": rt.webSessions.len() + rt.apiSessions.len(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
