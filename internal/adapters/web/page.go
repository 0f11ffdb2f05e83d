package web

import (
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
)

// PageData feeds page.html.
type PageData struct {
	MaxLength       int
	Limit           int
	Remaining       int
	Notice          *policy.Notice
	NoticeRemaining time.Duration
	Panel           PanelState
}
