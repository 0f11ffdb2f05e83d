package ports

import (
	"context"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// AnswerFetcher resolves a sanitized query into an answer with references.
type AnswerFetcher interface {
	FetchAnswer(ctx context.Context, sanitizedQuery string) (*domain.QueryResponse, error)
}

// ResultView is the results container of a UI binding.
type ResultView interface {
	ShowLoading(query string)
	ShowResult(query string, resp *domain.QueryResponse) error
	Clear()
}

// NoticePresenter shows transient user notices.
type NoticePresenter interface {
	Present(msg domain.UserMessage)
}

// QueryObserver receives per-submission measurements.
type QueryObserver interface {
	ObserveQuery(outcome domain.Outcome)
}

// QueryEventPublisher forwards submission records to an event stream.
type QueryEventPublisher interface {
	PublishQueryEvent(ctx context.Context, event domain.QueryEvent) error
}

// QueryEventSubscriber consumes submission records.
type QueryEventSubscriber interface {
	SubscribeQueryEvents(ctx context.Context, handler func(context.Context, domain.QueryEvent) error) error
}
