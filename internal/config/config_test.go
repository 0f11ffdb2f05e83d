package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, 1000, cfg.MaxQueryLength)
	require.Equal(t, 10, cfg.RateLimitMaxRequests)
	require.Equal(t, time.Minute, cfg.RateLimitWindow())
	require.Equal(t, 3*time.Second, cfg.NoticeTTL())
	require.Equal(t, 30*time.Second, cfg.RequestTimeout())
	require.Equal(t, BackendSimulated, cfg.AnswerBackend)
	require.Equal(t, "zh-CN", cfg.MessageLocale)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "3")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "5000")
	t.Setenv("ANSWER_BACKEND", "FastGPT")
	t.Setenv("FASTGPT_API_KEY", "key")
	t.Setenv("FASTGPT_BREAKER_ENABLED", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.RateLimitMaxRequests)
	require.Equal(t, 5*time.Second, cfg.RateLimitWindow())
	require.Equal(t, BackendFastGPT, cfg.AnswerBackend)
	require.Equal(t, "key", cfg.FastGPTAPIKey)
	require.False(t, cfg.FastGPTBreakerEnabled)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("ANSWER_BACKEND", "openai")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadNormalizesOutOfRangeValues(t *testing.T) {
	t.Setenv("MAX_QUERY_LENGTH", "0")
	t.Setenv("FASTGPT_RETRY_MAX_ATTEMPTS", "99")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.MaxQueryLength)
	require.Equal(t, 5, cfg.FastGPTRetryMaxAttempts)
}

func TestLoadReadsDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NOTICE_TTL_MS=4500\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("NOTICE_TTL_MS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4500*time.Millisecond, cfg.NoticeTTL())
}
