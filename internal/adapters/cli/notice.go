package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// NoticePrinter writes notices to the error stream. A terminal shows one
// line per notice, so the latest always wins.
type NoticePrinter struct {
	out   io.Writer
	color bool

	mu   sync.Mutex
	last *domain.UserMessage
}

func NewNoticePrinter(out io.Writer, color bool) *NoticePrinter {
	return &NoticePrinter{out: out, color: color}
}

func (p *NoticePrinter) Present(msg domain.UserMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = &msg

	line := "! " + msg.Text
	if p.color {
		line = noticeColor(msg.Category).Sprint(line)
	}
	fmt.Fprintln(p.out, line)
}

func (p *NoticePrinter) Last() (domain.UserMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return domain.UserMessage{}, false
	}
	return *p.last, true
}

func noticeColor(category domain.Category) text.Colors {
	switch category {
	case domain.CategoryEmptyInput, domain.CategoryTooLong:
		return text.Colors{text.FgYellow}
	case domain.CategoryRateLimited:
		return text.Colors{text.FgHiYellow, text.Bold}
	default:
		return text.Colors{text.FgRed}
	}
}
