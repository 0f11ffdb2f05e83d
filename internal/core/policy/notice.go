package policy

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

const DefaultNoticeTTL = 3 * time.Second

type Notice struct {
	ID        string
	Message   domain.UserMessage
	ShownAt   time.Time
	ExpiresAt time.Time
}

// NoticeBoard keeps at most one active notice. Presenting a new notice
// replaces the current one; notices expire after the board TTL.
type NoticeBoard struct {
	ttl    time.Duration
	clock  func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	current *Notice
}

func NewNoticeBoard(ttl time.Duration, logger *slog.Logger) *NoticeBoard {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NoticeBoard{
		ttl:    ttl,
		clock:  time.Now,
		logger: logger,
	}
}

func (b *NoticeBoard) WithClock(clock func() time.Time) *NoticeBoard {
	if clock != nil {
		b.clock = clock
	}
	return b
}

func (b *NoticeBoard) Present(msg domain.UserMessage) {
	now := b.clock()
	notice := &Notice{
		ID:        uuid.NewString(),
		Message:   msg,
		ShownAt:   now,
		ExpiresAt: now.Add(b.ttl),
	}

	b.mu.Lock()
	replaced := b.current != nil && now.Before(b.current.ExpiresAt)
	b.current = notice
	b.mu.Unlock()

	b.logger.Warn("notice_presented",
		"notice_id", notice.ID,
		"category", string(msg.Category),
		"message", msg.Text,
		"retry_after_ms", msg.RetryAfter.Milliseconds(),
		"replaced", replaced,
	)
}

// Current returns the active notice, if any has not yet expired.
func (b *NoticeBoard) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return Notice{}, false
	}
	if !b.clock().Before(b.current.ExpiresAt) {
		b.current = nil
		return Notice{}, false
	}
	return *b.current, true
}

// Dismiss removes the notice with the given id. A stale id leaves a newer
// notice in place.
func (b *NoticeBoard) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil || b.current.ID != id {
		return false
	}
	b.current = nil
	return true
}

// Remaining is the time left before n expires.
func (b *NoticeBoard) Remaining(n Notice) time.Duration {
	left := n.ExpiresAt.Sub(b.clock())
	if left < 0 {
		return 0
	}
	return left
}
