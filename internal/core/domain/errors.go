package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyInput  = errors.New("empty input")
	ErrTooLong     = errors.New("input too long")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrNetwork     = errors.New("network failure")
	ErrTimeout     = errors.New("timeout")
	ErrConfig      = errors.New("API key or endpoint misconfigured")
	ErrBusy        = errors.New("query already in flight")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationError is returned by input validation. Kind is ErrEmptyInput or ErrTooLong.
type ValidationError struct {
	Kind  error
	Limit int
}

func (e *ValidationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%v: limit %d characters", e.Kind, e.Limit)
	}
	return e.Kind.Error()
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// RateLimitError is returned when the session limiter refuses admission.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
