package policy

import (
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = 60 * time.Second
)

// RateLimiter admits at most MaxRequests submissions in any trailing Window.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clock       func() time.Time

	mu       sync.Mutex
	requests []time.Time
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clock:       time.Now,
	}
}

// WithClock replaces the time source.
func (r *RateLimiter) WithClock(clock func() time.Time) *RateLimiter {
	if clock != nil {
		r.clock = clock
	}
	return r
}

// Allow reports whether a new request may proceed and records it if so.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	r.prune(now)
	if len(r.requests) >= r.maxRequests {
		return false
	}
	r.requests = append(r.requests, now)
	return true
}

// WaitTime is the time until the oldest retained request leaves the window.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.requests) == 0 {
		return 0
	}
	wait := r.window - r.clock().Sub(r.requests[0])
	if wait < 0 {
		return 0
	}
	return wait
}

// Remaining reports how many admissions are left without recording one.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(r.clock())
	return r.maxRequests - len(r.requests)
}

func (r *RateLimiter) Limit() (int, time.Duration) {
	return r.maxRequests, r.window
}

// prune drops timestamps at or beyond the window edge. Timestamps are in
// admission order, so the retained ones are a suffix.
func (r *RateLimiter) prune(now time.Time) {
	cut := 0
	for cut < len(r.requests) && now.Sub(r.requests[cut]) >= r.window {
		cut++
	}
	if cut == 0 {
		return
	}
	r.requests = append(r.requests[:0], r.requests[cut:]...)
}
