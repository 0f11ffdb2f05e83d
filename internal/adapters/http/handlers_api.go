package httpadapter

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

type queryRequest struct {
	Query string `json:"query"`
}

type queryResult struct {
	Status            domain.QueryStatus  `json:"status"`
	Query             string              `json:"query,omitempty"`
	DomainRelevant    bool                `json:"domain_relevant"`
	Answer            string              `json:"answer,omitempty"`
	References        []domain.Reference  `json:"references,omitempty"`
	QueryTime         *time.Time          `json:"query_time,omitempty"`
	ProcessingTimeMS  float64             `json:"processing_time_ms,omitempty"`
	Notice            *domain.UserMessage `json:"notice,omitempty"`
	RetryAfterSeconds int                 `json:"retry_after_seconds,omitempty"`
}

func (rt *Router) apiQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	sess := apiSession(rt.apiSessions, w, r)
	outcome := sess.controller.HandleQuery(context.WithoutCancel(r.Context()), req.Query)

	limiter := sess.controller.Limiter()
	limit, _ := limiter.Limit()
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining()))

	result := queryResult{
		Status:         outcome.Status,
		Query:          outcome.Query,
		DomainRelevant: outcome.Validation.DomainRelevant,
		Notice:         outcome.Notice,
	}
	if resp := outcome.Response; resp != nil {
		result.Answer = resp.Answer
		result.References = resp.References
		if !resp.QueryTime.IsZero() {
			queryTime := resp.QueryTime.UTC()
			result.QueryTime = &queryTime
		}
		result.ProcessingTimeMS = float64(resp.ProcessingTime.Microseconds()) / 1000.0
	}
	if outcome.Notice != nil && outcome.Notice.RetryAfter > 0 {
		seconds := int(math.Ceil(outcome.Notice.RetryAfter.Seconds()))
		result.RetryAfterSeconds = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	writeJSON(w, mapOutcomeToHTTPStatus(outcome), result)
}
