package ports

import (
	"context"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// QueryHandler is the inbound contract every UI binding drives.
type QueryHandler interface {
	HandleQuery(ctx context.Context, raw string) domain.Outcome
	Clear()
}
