package httpadapter

import (
	"net/http"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

func mapOutcomeToHTTPStatus(outcome domain.Outcome) int {
	switch outcome.Status {
	case domain.StatusAnswered:
		return http.StatusOK
	case domain.StatusBusy:
		return http.StatusConflict
	}
	return mapErrorToHTTPStatus(outcome.Err)
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsKind(err, domain.ErrEmptyInput), domain.IsKind(err, domain.ErrTooLong):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrBusy):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrConfig):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
