package policy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

func newTestClassifier(t *testing.T) *ErrorClassifier {
	t.Helper()
	msgs, err := LoadMessages("zh-CN")
	require.NoError(t, err)
	return NewErrorClassifier(msgs)
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o deadline" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

var _ net.Error = timeoutNetError{}

func TestClassifyTypedKinds(t *testing.T) {
	c := newTestClassifier(t)

	cases := []struct {
		name string
		err  error
		want domain.Category
	}{
		{"empty", &domain.ValidationError{Kind: domain.ErrEmptyInput}, domain.CategoryEmptyInput},
		{"network kind", domain.WrapError(domain.ErrNetwork, "fastgpt", errors.New("connection refused")), domain.CategoryNetworkError},
		{"timeout kind", domain.WrapError(domain.ErrTimeout, "fastgpt", errors.New("slow")), domain.CategoryTimeout},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), domain.CategoryTimeout},
		{"net timeout", timeoutNetError{}, domain.CategoryTimeout},
		{"config kind", domain.WrapError(domain.ErrConfig, "fastgpt", errors.New("401")), domain.CategoryConfigError},
		{"upstream rate limit", domain.WrapError(domain.ErrRateLimited, "fastgpt", errors.New("429")), domain.CategoryRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, c.Classify(tc.err).Category)
		})
	}
}

func TestClassifyByMessageText(t *testing.T) {
	c := newTestClassifier(t)

	cases := []struct {
		text string
		want domain.Category
	}{
		{"Failed to fetch", domain.CategoryNetworkError},
		{"NetworkError when attempting to reach host", domain.CategoryNetworkError},
		{"upstream rate limit reached", domain.CategoryRateLimited},
		{"request timeout after 30s", domain.CategoryTimeout},
		{"invalid API key", domain.CategoryConfigError},
		{"something odd", domain.CategoryUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			msg := c.Classify(errors.New(tc.text))
			require.Equal(t, tc.want, msg.Category)
			require.NotEmpty(t, msg.Text)
		})
	}
}

func TestClassifyTooLongIncludesLimit(t *testing.T) {
	c := newTestClassifier(t)
	msg := c.Classify(&domain.ValidationError{Kind: domain.ErrTooLong, Limit: 1000})
	require.Equal(t, domain.CategoryTooLong, msg.Category)
	require.Equal(t, "查询内容不能超过1000个字符", msg.Text)
}

func TestClassifyBareTooLongUsesConfiguredLimit(t *testing.T) {
	wrapped := domain.WrapError(domain.ErrTooLong, "validate", errors.New("query rejected"))

	require.Equal(t, "查询内容不能超过1000个字符", newTestClassifier(t).Classify(wrapped).Text)

	msg := newTestClassifier(t).WithMaxLength(200).Classify(wrapped)
	require.Equal(t, domain.CategoryTooLong, msg.Category)
	require.Equal(t, "查询内容不能超过200个字符", msg.Text)
}

func TestClassifyRateLimitIncludesWaitSeconds(t *testing.T) {
	c := newTestClassifier(t)
	msg := c.Classify(&domain.RateLimitError{RetryAfter: 41200 * time.Millisecond})
	require.Equal(t, domain.CategoryRateLimited, msg.Category)
	require.Equal(t, "请求过于频繁，请等待42秒后重试", msg.Text)
	require.Equal(t, 41200*time.Millisecond, msg.RetryAfter)
}

func TestClassifyNilIsUnknown(t *testing.T) {
	c := newTestClassifier(t)
	require.Equal(t, domain.CategoryUnknown, c.Classify(nil).Category)
}

func TestLoadMessagesLocales(t *testing.T) {
	en, err := LoadMessages("en")
	require.NoError(t, err)
	require.Contains(t, en.RateLimitedWait, "%d")

	def, err := LoadMessages("")
	require.NoError(t, err)
	require.Equal(t, "查询内容不能为空", def.EmptyInput)

	_, err = LoadMessages("fr")
	require.Error(t, err)
}

func TestWaitSecondsRoundsUp(t *testing.T) {
	require.Equal(t, 0, WaitSeconds(0))
	require.Equal(t, 1, WaitSeconds(10*time.Millisecond))
	require.Equal(t, 60, WaitSeconds(time.Minute))
}
