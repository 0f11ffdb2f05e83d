package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queriesTotal       *prometheus.CounterVec
	queryDuration      *prometheus.HistogramVec
	queryReferences    *prometheus.HistogramVec
	queryRelevantTotal *prometheus.CounterVec
	sessionsActive     prometheus.Gauge
	trafficShedTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medq",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medq",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medq",
			Subsystem: "query",
			Name:      "submissions_total",
			Help:      "Total query submissions by outcome status and notice category.",
		},
		[]string{"service", "status", "category"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medq",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Submission handling duration in seconds by outcome status.",
			Buckets:   []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"service", "status"},
	)
	queryReferences := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medq",
			Subsystem: "query",
			Name:      "references",
			Help:      "Distribution of references per answered query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	queryRelevantTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medq",
			Subsystem: "query",
			Name:      "domain_relevance_total",
			Help:      "Validated queries by medical keyword relevance.",
		},
		[]string{"service", "relevant"},
	)
	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medq",
			Subsystem: "web",
			Name:      "sessions_active",
			Help:      "Number of live browser sessions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	trafficShedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medq",
			Subsystem: "http",
			Name:      "shed_total",
			Help:      "Requests rejected by traffic control before reaching a handler.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queriesTotal,
		queryDuration,
		queryReferences,
		queryRelevantTotal,
		sessionsActive,
		trafficShedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		queriesTotal:       queriesTotal,
		queryDuration:      queryDuration,
		queryReferences:    queryReferences,
		queryRelevantTotal: queryRelevantTotal,
		sessionsActive:     sessionsActive,
		trafficShedTotal:   trafficShedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests that gather individual series.
func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/static/"):
		return "/static/{asset}"
	case strings.HasPrefix(path, "/notice/"):
		return "/notice/{action}"
	default:
		return path
	}
}

// ObserveQuery records one controller outcome.
func (m *HTTPServerMetrics) ObserveQuery(outcome domain.Outcome) {
	category := "none"
	if outcome.Notice != nil {
		category = string(outcome.Notice.Category)
	}
	status := string(outcome.Status)
	if status == "" {
		status = "unknown"
	}

	m.queriesTotal.WithLabelValues(m.service, status, category).Inc()
	if outcome.Status == domain.StatusBusy {
		return
	}
	m.queryDuration.WithLabelValues(m.service, status).Observe(outcome.Duration.Seconds())

	if outcome.Validation.Query != "" {
		m.queryRelevantTotal.WithLabelValues(m.service, strconv.FormatBool(outcome.Validation.DomainRelevant)).Inc()
	}
	if outcome.Response != nil {
		m.queryReferences.WithLabelValues(m.service).Observe(float64(len(outcome.Response.References)))
	}
}

func (m *HTTPServerMetrics) SessionOpened() {
	m.sessionsActive.Inc()
}

func (m *HTTPServerMetrics) SessionsClosed(n int) {
	if n <= 0 {
		return
	}
	m.sessionsActive.Sub(float64(n))
}

func (m *HTTPServerMetrics) RecordShed(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.trafficShedTotal.WithLabelValues(m.service, reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
