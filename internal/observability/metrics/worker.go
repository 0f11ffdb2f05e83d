package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// WorkerMetrics covers the query event consumer.
type WorkerMetrics struct {
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	eventsInFlight  prometheus.Gauge
	eventLag        *prometheus.HistogramVec
	queryCategories *prometheus.CounterVec
	queryLatency    *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medq",
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Total consumed query events by handling result.",
		},
		[]string{"service", "result"},
	)
	eventDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medq",
			Subsystem: "worker",
			Name:      "event_handle_duration_seconds",
			Help:      "Event handling duration in seconds by result.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "result"},
	)
	eventsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medq",
			Subsystem: "worker",
			Name:      "events_in_flight",
			Help:      "Number of query events being handled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medq",
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between a submission and its event being consumed.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service"},
	)
	queryCategories := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medq",
			Subsystem: "worker",
			Name:      "query_outcomes_total",
			Help:      "Aggregated submission outcomes seen on the event stream.",
		},
		[]string{"service", "status", "category"},
	)
	queryLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medq",
			Subsystem: "worker",
			Name:      "query_duration_seconds",
			Help:      "Submission durations reported on the event stream.",
			Buckets:   []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(eventsTotal, eventDuration, eventsInFlight, eventLag, queryCategories, queryLatency)

	return &WorkerMetrics{
		registry:        registry,
		eventsTotal:     eventsTotal,
		eventDuration:   eventDuration,
		eventsInFlight:  eventsInFlight,
		eventLag:        eventLag,
		queryCategories: queryCategories,
		queryLatency:    queryLatency,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEvent() {
	m.eventsInFlight.Inc()
}

func (m *WorkerMetrics) FinishEvent(service string, duration time.Duration, err error) {
	m.eventsInFlight.Dec()

	result := "success"
	if err != nil {
		result = "error"
	}

	m.eventsTotal.WithLabelValues(service, result).Inc()
	m.eventDuration.WithLabelValues(service, result).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveEventLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
}

// RecordQueryEvent aggregates the submission carried by an event.
func (m *WorkerMetrics) RecordQueryEvent(service string, event domain.QueryEvent) {
	category := string(event.Category)
	if category == "" {
		category = "none"
	}
	m.queryCategories.WithLabelValues(service, string(event.Status), category).Inc()
	if event.DurationMS > 0 {
		m.queryLatency.WithLabelValues(service, string(event.Status)).Observe(event.DurationMS / 1000.0)
	}
}
