package fastgpt

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/resilience"
)

func classifyFastGPTError(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.Verdict{Retryable: true, RecordFailure: true}
		}
		return resilience.Verdict{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Verdict{Retryable: true, RecordFailure: true}
	}

	return resilience.Verdict{Retryable: false, RecordFailure: true}
}

// toDomainError attaches the failure kind the error classifier keys on.
func toDomainError(err error) error {
	const op = "fastgpt chat"

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTimeout, op, err)
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrNetwork, op, err)
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.WrapError(domain.ErrConfig, op, err)
		case http.StatusTooManyRequests:
			return domain.WrapError(domain.ErrRateLimited, op, err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return domain.WrapError(domain.ErrTimeout, op, err)
		case http.StatusBadGateway, http.StatusServiceUnavailable:
			return domain.WrapError(domain.ErrNetwork, op, err)
		default:
			return err
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.WrapError(domain.ErrTimeout, op, err)
		}
		return domain.WrapError(domain.ErrNetwork, op, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
