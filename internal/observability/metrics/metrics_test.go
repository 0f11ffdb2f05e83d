package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("medq-test")
	h := m.Middleware("medq-test", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/query", nil))

	out := scrape(t, m.Handler())
	require.Contains(t, out, `medq_http_requests_total{method="POST",path="/query",service="medq-test",status="418"} 1`)
}

func TestObserveQueryRecordsOutcome(t *testing.T) {
	m := NewHTTPServerMetrics("medq-test")

	m.ObserveQuery(domain.Outcome{
		Status:     domain.StatusAnswered,
		Validation: domain.ValidationResult{Query: "发热", DomainRelevant: true},
		Response:   &domain.QueryResponse{References: []domain.Reference{{ID: 1}, {ID: 2}}},
		Duration:   1500 * time.Millisecond,
	})
	m.ObserveQuery(domain.Outcome{
		Status: domain.StatusRejected,
		Notice: &domain.UserMessage{Category: domain.CategoryEmptyInput},
	})
	m.ObserveQuery(domain.Outcome{Status: domain.StatusBusy})

	out := scrape(t, m.Handler())
	require.Contains(t, out, `medq_query_submissions_total{category="none",service="medq-test",status="answered"} 1`)
	require.Contains(t, out, `medq_query_submissions_total{category="empty_input",service="medq-test",status="rejected"} 1`)
	require.Contains(t, out, `medq_query_submissions_total{category="none",service="medq-test",status="busy"} 1`)
	require.Contains(t, out, `medq_query_domain_relevance_total{relevant="true",service="medq-test"} 1`)
	require.Contains(t, out, `medq_query_references_sum{service="medq-test"} 2`)
}

func TestSessionGaugeAndShedCounter(t *testing.T) {
	m := NewHTTPServerMetrics("medq-test")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionsClosed(1)
	m.RecordShed("rate_limit")

	out := scrape(t, m.Handler())
	require.Contains(t, out, `medq_web_sessions_active{service="medq-test"} 1`)
	require.Contains(t, out, `medq_http_shed_total{reason="rate_limit",service="medq-test"} 1`)
}

func TestWorkerMetricsRecordEvents(t *testing.T) {
	m := NewWorkerMetrics("medq-worker")

	m.StartEvent()
	m.FinishEvent("medq-worker", 10*time.Millisecond, nil)
	m.StartEvent()
	m.FinishEvent("medq-worker", 10*time.Millisecond, errors.New("boom"))
	m.RecordQueryEvent("medq-worker", domain.QueryEvent{Status: domain.StatusFailed, Category: domain.CategoryTimeout, DurationMS: 30000})

	out := scrape(t, m.Handler())
	require.Contains(t, out, `medq_worker_events_total{result="success",service="medq-worker"} 1`)
	require.Contains(t, out, `medq_worker_events_total{result="error",service="medq-worker"} 1`)
	require.Contains(t, out, `medq_worker_query_outcomes_total{category="timeout",service="medq-worker",status="failed"} 1`)
	require.Contains(t, out, `medq_worker_events_in_flight{service="medq-worker"} 0`)
}
