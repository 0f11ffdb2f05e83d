package policy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// ErrorClassifier maps failures to localized user messages.
type ErrorClassifier struct {
	messages  Messages
	maxLength int
}

func NewErrorClassifier(messages Messages) *ErrorClassifier {
	return &ErrorClassifier{messages: messages, maxLength: DefaultMaxQueryLength}
}

// WithMaxLength sets the limit quoted when a too-long error carries none.
func (c *ErrorClassifier) WithMaxLength(n int) *ErrorClassifier {
	if n > 0 {
		c.maxLength = n
	}
	return c
}

func (c *ErrorClassifier) Classify(err error) domain.UserMessage {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) && errors.Is(validationErr.Kind, domain.ErrTooLong) {
		return domain.UserMessage{
			Category: domain.CategoryTooLong,
			Text:     fmt.Sprintf(c.messages.TooLong, validationErr.Limit),
		}
	}

	var limitErr *domain.RateLimitError
	if errors.As(err, &limitErr) && limitErr.RetryAfter > 0 {
		return domain.UserMessage{
			Category:   domain.CategoryRateLimited,
			Text:       fmt.Sprintf(c.messages.RateLimitedWait, WaitSeconds(limitErr.RetryAfter)),
			RetryAfter: limitErr.RetryAfter,
		}
	}

	category := Categorize(err)
	return domain.UserMessage{
		Category: category,
		Text:     c.text(category),
	}
}

// Categorize prefers typed error kinds and falls back to matching the
// message text.
func Categorize(err error) domain.Category {
	if err == nil {
		return domain.CategoryUnknown
	}

	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return domain.CategoryEmptyInput
	case errors.Is(err, domain.ErrTooLong):
		return domain.CategoryTooLong
	case errors.Is(err, domain.ErrRateLimited):
		return domain.CategoryRateLimited
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return domain.CategoryTimeout
	case errors.Is(err, domain.ErrNetwork):
		return domain.CategoryNetworkError
	case errors.Is(err, domain.ErrConfig):
		return domain.CategoryConfigError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.CategoryTimeout
		}
		return domain.CategoryNetworkError
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "network"), strings.Contains(text, "fetch"):
		return domain.CategoryNetworkError
	case strings.Contains(text, "rate limit"):
		return domain.CategoryRateLimited
	case strings.Contains(text, "timeout"):
		return domain.CategoryTimeout
	case strings.Contains(text, "api key"):
		return domain.CategoryConfigError
	default:
		return domain.CategoryUnknown
	}
}

func (c *ErrorClassifier) text(category domain.Category) string {
	switch category {
	case domain.CategoryEmptyInput:
		return c.messages.EmptyInput
	case domain.CategoryTooLong:
		return fmt.Sprintf(c.messages.TooLong, c.maxLength)
	case domain.CategoryRateLimited:
		return c.messages.RateLimited
	case domain.CategoryNetworkError:
		return c.messages.NetworkError
	case domain.CategoryTimeout:
		return c.messages.Timeout
	case domain.CategoryConfigError:
		return c.messages.ConfigError
	default:
		return c.messages.Unknown
	}
}

// WaitSeconds rounds a wait up to whole seconds.
func WaitSeconds(wait time.Duration) int {
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}
