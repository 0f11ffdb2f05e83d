package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRateLimiterAdmitsUpToMaxThenDenies(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(3, time.Minute).WithClock(clock.Now)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(), "request %d should be admitted", i+1)
		clock.Advance(time.Second)
	}
	require.False(t, limiter.Allow())
}

func TestRateLimiterAdmitsAgainAfterWindow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(2, time.Minute).WithClock(clock.Now)

	require.True(t, limiter.Allow())
	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())

	clock.Advance(time.Minute)
	require.True(t, limiter.Allow())
}

func TestRateLimiterDeniedRequestIsNotRecorded(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(1, 10*time.Second).WithClock(clock.Now)

	require.True(t, limiter.Allow())
	clock.Advance(5 * time.Second)
	require.False(t, limiter.Allow())

	clock.Advance(5 * time.Second)
	require.True(t, limiter.Allow())
}

func TestRateLimiterWaitTime(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(2, time.Minute).WithClock(clock.Now)

	require.Zero(t, limiter.WaitTime())

	require.True(t, limiter.Allow())
	clock.Advance(20 * time.Second)
	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())

	require.Equal(t, 40*time.Second, limiter.WaitTime())

	clock.Advance(2 * time.Minute)
	require.Zero(t, limiter.WaitTime())
}

func TestRateLimiterRemainingDoesNotConsume(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(2, time.Minute).WithClock(clock.Now)

	require.Equal(t, 2, limiter.Remaining())
	require.Equal(t, 2, limiter.Remaining())
	require.True(t, limiter.Allow())
	require.Equal(t, 1, limiter.Remaining())

	clock.Advance(time.Minute)
	require.Equal(t, 2, limiter.Remaining())
}

func TestNewRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	max, window := limiter.Limit()
	require.Equal(t, DefaultMaxRequests, max)
	require.Equal(t, DefaultWindow, window)
}
