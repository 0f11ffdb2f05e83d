package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
)

type fetcherFake struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
	queries []string
	mu      sync.Mutex
}

func (f *fetcherFake) FetchAnswer(_ context.Context, query string) (*domain.QueryResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.QueryResponse{
		Answer: "answer for " + query,
		References: []domain.Reference{
			{ID: 1, Title: "临床医学指南 - 相关章节", Source: "中华医学会", Confidence: 0.95},
		},
		QueryTime: time.Now(),
	}, nil
}

type viewFake struct {
	loading  []string
	rendered []string
	response *domain.QueryResponse
	cleared  int
	err      error
}

func (v *viewFake) ShowLoading(query string) { v.loading = append(v.loading, query) }
func (v *viewFake) ShowResult(query string, resp *domain.QueryResponse) error {
	if v.err != nil {
		return v.err
	}
	v.rendered = append(v.rendered, query)
	v.response = resp
	return nil
}
func (v *viewFake) Clear() { v.cleared++ }

type presenterFake struct {
	mu       sync.Mutex
	messages []domain.UserMessage
}

func (p *presenterFake) Present(msg domain.UserMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *presenterFake) last() domain.UserMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[len(p.messages)-1]
}

type eventsFake struct {
	events []domain.QueryEvent
}

func (e *eventsFake) PublishQueryEvent(_ context.Context, event domain.QueryEvent) error {
	e.events = append(e.events, event)
	return nil
}

type controllerFixture struct {
	controller *QueryController
	fetcher    *fetcherFake
	view       *viewFake
	presenter  *presenterFake
	events     *eventsFake
}

func newFixture(t *testing.T, maxRequests int, fetcher *fetcherFake) controllerFixture {
	t.Helper()
	msgs, err := policy.LoadMessages("zh-CN")
	require.NoError(t, err)

	if fetcher == nil {
		fetcher = &fetcherFake{}
	}
	view := &viewFake{}
	presenter := &presenterFake{}
	events := &eventsFake{}
	controller := NewQueryController(
		policy.NewInputValidator(20),
		policy.NewRateLimiter(maxRequests, time.Minute),
		policy.NewErrorClassifier(msgs),
		fetcher,
		ControllerOptions{
			View:      view,
			Presenter: presenter,
			Events:    events,
			SessionID: "session-1",
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	)
	return controllerFixture{controller, fetcher, view, presenter, events}
}

func TestHandleQueryAnswersMedicalQuery(t *testing.T) {
	fx := newFixture(t, 10, nil)

	outcome := fx.controller.HandleQuery(context.Background(), "  患者出现发热症状 ")
	require.Equal(t, domain.StatusAnswered, outcome.Status)
	require.NoError(t, outcome.Err)
	require.True(t, outcome.Validation.DomainRelevant)
	require.Equal(t, "患者出现发热症状", outcome.Query)
	require.Len(t, outcome.Response.References, 1)

	require.Equal(t, int32(1), fx.fetcher.calls.Load())
	require.Equal(t, []string{"患者出现发热症状"}, fx.view.loading)
	require.Equal(t, []string{"患者出现发热症状"}, fx.view.rendered)
	require.Empty(t, fx.presenter.messages)
	require.Equal(t, StateIdle, fx.controller.State())

	require.Len(t, fx.events.events, 1)
	require.Equal(t, domain.StatusAnswered, fx.events.events[0].Status)
	require.Equal(t, 1, fx.events.events[0].References)
}

func TestHandleQuerySanitizesBeforeFetch(t *testing.T) {
	fx := newFixture(t, 10, nil)

	outcome := fx.controller.HandleQuery(context.Background(), "<b>症状</b>")
	require.Equal(t, domain.StatusAnswered, outcome.Status)
	require.Equal(t, []string{"&lt;b&gt;症状&lt;&#x2F;b&gt;"}, fx.fetcher.queries)
}

func TestHandleQueryEmptyInputSkipsFetch(t *testing.T) {
	fx := newFixture(t, 10, nil)

	outcome := fx.controller.HandleQuery(context.Background(), "   ")
	require.Equal(t, domain.StatusRejected, outcome.Status)
	require.ErrorIs(t, outcome.Err, domain.ErrEmptyInput)
	require.Zero(t, fx.fetcher.calls.Load())
	require.Empty(t, fx.view.loading)

	msg := fx.presenter.last()
	require.Equal(t, domain.CategoryEmptyInput, msg.Category)
	require.Equal(t, "查询内容不能为空", msg.Text)
}

func TestHandleQueryTooLongSkipsFetch(t *testing.T) {
	fx := newFixture(t, 10, nil)

	outcome := fx.controller.HandleQuery(context.Background(), "症状症状症状症状症状症状症状症状症状症状症状")
	require.Equal(t, domain.StatusRejected, outcome.Status)
	require.Zero(t, fx.fetcher.calls.Load())
	require.Equal(t, domain.CategoryTooLong, fx.presenter.last().Category)
}

func TestHandleQueryRateLimitPresentsWaitTime(t *testing.T) {
	fx := newFixture(t, 3, nil)

	for i := 0; i < 3; i++ {
		outcome := fx.controller.HandleQuery(context.Background(), "药物治疗")
		require.Equal(t, domain.StatusAnswered, outcome.Status)
	}

	outcome := fx.controller.HandleQuery(context.Background(), "药物治疗")
	require.Equal(t, domain.StatusRejected, outcome.Status)
	require.ErrorIs(t, outcome.Err, domain.ErrRateLimited)
	require.Equal(t, int32(3), fx.fetcher.calls.Load())

	msg := fx.presenter.last()
	require.Equal(t, domain.CategoryRateLimited, msg.Category)
	require.Positive(t, msg.RetryAfter)
	require.Contains(t, msg.Text, "请求过于频繁")
	require.Contains(t, msg.Text, "60秒")
}

func TestHandleQueryWhileSubmittingIsIgnored(t *testing.T) {
	fetcher := &fetcherFake{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	fx := newFixture(t, 10, fetcher)

	done := make(chan domain.Outcome, 1)
	go func() {
		done <- fx.controller.HandleQuery(context.Background(), "诊断")
	}()
	<-fetcher.started
	require.Equal(t, StateSubmitting, fx.controller.State())

	second := fx.controller.HandleQuery(context.Background(), "诊断")
	require.Equal(t, domain.StatusBusy, second.Status)
	require.ErrorIs(t, second.Err, domain.ErrBusy)
	require.Nil(t, second.Notice)
	require.Equal(t, 9, fx.controller.Limiter().Remaining())

	close(fetcher.release)
	select {
	case first := <-done:
		require.Equal(t, domain.StatusAnswered, first.Status)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for in-flight query")
	}
	require.Equal(t, int32(1), fetcher.calls.Load())
	require.Equal(t, StateIdle, fx.controller.State())
}

func TestHandleQueryFetchFailureIsClassified(t *testing.T) {
	fetcher := &fetcherFake{err: domain.WrapError(domain.ErrTimeout, "fastgpt", context.DeadlineExceeded)}
	fx := newFixture(t, 10, fetcher)

	outcome := fx.controller.HandleQuery(context.Background(), "手术")
	require.Equal(t, domain.StatusFailed, outcome.Status)
	require.Equal(t, domain.CategoryTimeout, outcome.Notice.Category)
	require.Equal(t, "请求超时，请稍后重试", fx.presenter.last().Text)
	require.Equal(t, 1, fx.view.cleared)
	require.Equal(t, StateIdle, fx.controller.State())

	require.Len(t, fx.events.events, 1)
	require.Equal(t, domain.CategoryTimeout, fx.events.events[0].Category)
}

func TestHandleQueryRenderFailureIsUnknown(t *testing.T) {
	fx := newFixture(t, 10, nil)
	fx.view.err = errors.New("template exploded")

	outcome := fx.controller.HandleQuery(context.Background(), "病理")
	require.Equal(t, domain.StatusFailed, outcome.Status)
	require.Equal(t, domain.CategoryUnknown, fx.presenter.last().Category)
	require.Equal(t, StateIdle, fx.controller.State())
}

func TestClearDelegatesToView(t *testing.T) {
	fx := newFixture(t, 10, nil)
	fx.controller.Clear()
	require.Equal(t, 1, fx.view.cleared)
}
