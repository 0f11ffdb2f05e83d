package domain

import "time"

// Category is the user-facing class of a failure.
type Category string

const (
	CategoryEmptyInput   Category = "empty_input"
	CategoryTooLong      Category = "too_long"
	CategoryRateLimited  Category = "rate_limited"
	CategoryNetworkError Category = "network_error"
	CategoryTimeout      Category = "timeout"
	CategoryConfigError  Category = "config_error"
	CategoryUnknown      Category = "unknown"
)

// UserMessage is a localized notice shown to the user.
type UserMessage struct {
	Category   Category      `json:"category"`
	Text       string        `json:"message"`
	RetryAfter time.Duration `json:"-"`
}
