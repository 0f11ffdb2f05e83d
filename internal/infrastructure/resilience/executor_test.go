package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetryConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestCallRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3), quietLogger())

	attempts := 0
	errTemp := errors.New("temporary")
	value, err := Call(context.Background(), exec, "fastgpt.chat", func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errTemp
		}
		return "ok", nil
	}, func(err error) Verdict {
		return Verdict{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})
	require.NoError(t, err)
	require.Equal(t, "ok", value)
	require.Equal(t, 3, attempts)
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3), quietLogger())

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "fastgpt.chat", func(context.Context) error {
		attempts++
		return errPermanent
	}, nil)
	require.ErrorIs(t, err, errPermanent)
	require.Equal(t, 1, attempts)
}

func TestExecuteReturnsLastErrorWhenAttemptsExhausted(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(2), quietLogger())

	attempts := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("still failing")
	}, func(error) Verdict { return Verdict{Retryable: true, RecordFailure: true} })
	require.EqualError(t, err, "still failing")
	require.Equal(t, 2, attempts)
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}, quietLogger())

	errTemp := errors.New("temporary")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, nil)
		require.ErrorIs(t, err, errTemp, "iteration %d", i)
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.True(t, IsCircuitOpen(err))
}

func TestAnswerBackendConfigFollowsRequestTimeout(t *testing.T) {
	cfg := AnswerBackendConfig(3, false, 2*time.Minute)
	require.Equal(t, 3, cfg.RetryMaxAttempts)
	require.False(t, cfg.BreakerEnabled)
	require.Equal(t, 2*time.Minute, cfg.BreakerOpenTimeout)
	require.Equal(t, time.Second, cfg.RetryMaxBackoff)

	short := AnswerBackendConfig(0, true, time.Second)
	require.Equal(t, DefaultConfig().RetryMaxAttempts, short.RetryMaxAttempts)
	require.Equal(t, 30*time.Second, short.BreakerOpenTimeout)
	require.Equal(t, 200*time.Millisecond, short.RetryMaxBackoff)
}

func TestNormalizeFillsInvalidValues(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 2,
	}.normalize()

	def := DefaultConfig()
	require.Equal(t, def.RetryMaxAttempts, cfg.RetryMaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.RetryMaxBackoff)
	require.Equal(t, def.RetryMultiplier, cfg.RetryMultiplier)
	require.Equal(t, def.BreakerFailureRatio, cfg.BreakerFailureRatio)
	require.Equal(t, def.BreakerMinRequests, cfg.BreakerMinRequests)
	require.Equal(t, def.BreakerHalfOpenMaxCalls, cfg.BreakerHalfOpenMaxCalls)
}
