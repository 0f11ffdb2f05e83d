package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/core/ports"
)

// AuditMetrics receives per-event measurements from QueryAudit.
type AuditMetrics interface {
	StartEvent()
	FinishEvent(service string, duration time.Duration, err error)
	ObserveEventLag(service string, lag time.Duration)
	RecordQueryEvent(service string, event domain.QueryEvent)
}

// QueryAudit consumes submission events: one structured log line and one
// metrics sample per event, plus running totals by status.
type QueryAudit struct {
	service string
	logger  *slog.Logger
	metrics AuditMetrics
	clock   func() time.Time

	mu     sync.Mutex
	totals map[domain.QueryStatus]int
}

func NewQueryAudit(service string, logger *slog.Logger, metrics AuditMetrics) *QueryAudit {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryAudit{
		service: service,
		logger:  logger,
		metrics: metrics,
		clock:   time.Now,
		totals:  make(map[domain.QueryStatus]int),
	}
}

// Run consumes events from source until ctx is done.
func (a *QueryAudit) Run(ctx context.Context, source ports.QueryEventSubscriber) error {
	if source == nil {
		return fmt.Errorf("query audit: no event source")
	}
	return source.SubscribeQueryEvents(ctx, a.Handle)
}

func (a *QueryAudit) Handle(_ context.Context, event domain.QueryEvent) (err error) {
	start := a.clock()
	if a.metrics != nil {
		a.metrics.StartEvent()
		defer func() {
			a.metrics.FinishEvent(a.service, a.clock().Sub(start), err)
		}()
	}

	switch event.Status {
	case domain.StatusAnswered, domain.StatusRejected, domain.StatusFailed, domain.StatusBusy:
	default:
		return fmt.Errorf("query event %s: unknown status %q", event.ID, event.Status)
	}

	if a.metrics != nil {
		if !event.At.IsZero() {
			a.metrics.ObserveEventLag(a.service, start.Sub(event.At))
		}
		a.metrics.RecordQueryEvent(a.service, event)
	}

	a.mu.Lock()
	a.totals[event.Status]++
	a.mu.Unlock()

	a.logger.Info("query_event",
		"event_id", event.ID,
		"session_id", event.SessionID,
		"status", string(event.Status),
		"category", string(event.Category),
		"domain_relevant", event.DomainRelevant,
		"references", event.References,
		"duration_ms", event.DurationMS,
	)
	return nil
}

func (a *QueryAudit) Totals() map[domain.QueryStatus]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[domain.QueryStatus]int, len(a.totals))
	for k, v := range a.totals {
		out[k] = v
	}
	return out
}
