package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
	"github.com/kirillkom/medical-query-assistant/internal/core/ports"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// ControllerOptions carries the optional collaborators of a QueryController.
type ControllerOptions struct {
	View      ports.ResultView
	Presenter ports.NoticePresenter
	Observer  ports.QueryObserver
	Events    ports.QueryEventPublisher
	SessionID string
	Logger    *slog.Logger
}

// QueryController owns one UI session: its limiter window and its
// single-in-flight guard.
type QueryController struct {
	validator  *policy.InputValidator
	limiter    *policy.RateLimiter
	classifier *policy.ErrorClassifier
	fetcher    ports.AnswerFetcher

	view      ports.ResultView
	presenter ports.NoticePresenter
	observer  ports.QueryObserver
	events    ports.QueryEventPublisher
	sessionID string
	logger    *slog.Logger
	clock     func() time.Time

	mu    sync.Mutex
	state State
}

func NewQueryController(
	validator *policy.InputValidator,
	limiter *policy.RateLimiter,
	classifier *policy.ErrorClassifier,
	fetcher ports.AnswerFetcher,
	opts ControllerOptions,
) *QueryController {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryController{
		validator:  validator,
		limiter:    limiter,
		classifier: classifier,
		fetcher:    fetcher,
		view:       opts.View,
		presenter:  opts.Presenter,
		observer:   opts.Observer,
		events:     opts.Events,
		sessionID:  opts.SessionID,
		logger:     logger,
		clock:      time.Now,
	}
}

func (c *QueryController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Limiter exposes the session window for read-only reporting.
func (c *QueryController) Limiter() *policy.RateLimiter {
	return c.limiter
}

// HandleQuery runs one submission through validation, admission and the
// answer fetch. A submission made while another is in flight is ignored.
func (c *QueryController) HandleQuery(ctx context.Context, raw string) domain.Outcome {
	start := c.clock()

	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		outcome := domain.Outcome{Status: domain.StatusBusy, Query: raw, Err: domain.ErrBusy}
		c.logger.Debug("query_ignored_in_flight", "session_id", c.sessionID)
		c.observe(outcome)
		return outcome
	}

	validation, err := c.validator.Validate(raw)
	if err != nil {
		c.mu.Unlock()
		return c.finish(ctx, start, domain.Outcome{Status: domain.StatusRejected, Query: raw}, err)
	}

	outcome := domain.Outcome{
		Query:      validation.Query,
		Sanitized:  policy.Sanitize(validation.Query),
		Validation: validation,
	}

	if !c.limiter.Allow() {
		wait := c.limiter.WaitTime()
		c.mu.Unlock()
		outcome.Status = domain.StatusRejected
		return c.finish(ctx, start, outcome, &domain.RateLimitError{RetryAfter: wait})
	}

	c.state = StateSubmitting
	c.mu.Unlock()
	defer c.setState(StateIdle)

	if !validation.DomainRelevant {
		c.logger.Info("query_outside_medical_vocabulary", "session_id", c.sessionID)
	}

	if c.view != nil {
		c.view.ShowLoading(outcome.Sanitized)
	}

	resp, err := c.fetcher.FetchAnswer(ctx, outcome.Sanitized)
	if err == nil && resp == nil {
		err = errors.New("answer collaborator returned no response")
	}
	if err == nil && c.view != nil {
		if renderErr := c.view.ShowResult(outcome.Sanitized, resp); renderErr != nil {
			err = fmt.Errorf("render result: %w", renderErr)
		}
	}
	if err != nil {
		if c.view != nil {
			c.view.Clear()
		}
		outcome.Status = domain.StatusFailed
		return c.finish(ctx, start, outcome, err)
	}

	outcome.Status = domain.StatusAnswered
	outcome.Response = resp
	return c.finish(ctx, start, outcome, nil)
}

// Clear empties the results container.
func (c *QueryController) Clear() {
	if c.view != nil {
		c.view.Clear()
	}
}

func (c *QueryController) finish(ctx context.Context, start time.Time, outcome domain.Outcome, err error) domain.Outcome {
	outcome.Duration = c.clock().Sub(start)

	if err != nil {
		msg := c.classifier.Classify(err)
		outcome.Err = err
		outcome.Notice = &msg
		if c.presenter != nil {
			c.presenter.Present(msg)
		}
		c.logger.Warn("query_not_answered",
			"session_id", c.sessionID,
			"status", string(outcome.Status),
			"category", string(msg.Category),
			"error", err,
		)
	} else {
		c.logger.Info("query_answered",
			"session_id", c.sessionID,
			"domain_relevant", outcome.Validation.DomainRelevant,
			"references", len(outcome.Response.References),
			"duration_ms", float64(outcome.Duration.Microseconds())/1000.0,
		)
	}

	c.observe(outcome)
	c.publish(ctx, outcome)
	return outcome
}

func (c *QueryController) observe(outcome domain.Outcome) {
	if c.observer != nil {
		c.observer.ObserveQuery(outcome)
	}
}

func (c *QueryController) publish(ctx context.Context, outcome domain.Outcome) {
	if c.events == nil {
		return
	}

	event := domain.QueryEvent{
		ID:             uuid.NewString(),
		SessionID:      c.sessionID,
		Status:         outcome.Status,
		DomainRelevant: outcome.Validation.DomainRelevant,
		DurationMS:     float64(outcome.Duration.Microseconds()) / 1000.0,
		At:             c.clock().UTC(),
	}
	if outcome.Notice != nil {
		event.Category = outcome.Notice.Category
	}
	if outcome.Response != nil {
		event.References = len(outcome.Response.References)
	}

	if err := c.events.PublishQueryEvent(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Error("query_event_publish_failed", "event_id", event.ID, "error", err)
	}
}

func (c *QueryController) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
