package cli

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// TerminalView prints results to a terminal. Queries and answers arrive
// HTML-escaped and are unescaped for display.
type TerminalView struct {
	out   io.Writer
	color bool

	mu    sync.Mutex
	shown bool
}

func NewTerminalView(out io.Writer, color bool) *TerminalView {
	return &TerminalView{out: out, color: color}
}

func (v *TerminalView) ShowLoading(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "%s %s\n", v.paint(text.FgCyan, "正在检索医学信息..."), html.UnescapeString(query))
}

func (v *TerminalView) ShowResult(query string, resp *domain.QueryResponse) error {
	if resp == nil {
		return fmt.Errorf("render result: nil response")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", v.paint(text.Bold, "查询结果 ✓ 已完成"))
	fmt.Fprintf(&b, "查询内容：%s\n\n", html.UnescapeString(query))
	for _, paragraph := range strings.Split(resp.Answer, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", html.UnescapeString(paragraph))
	}

	fmt.Fprintf(&b, "%s\n", v.paint(text.Bold, "参考文献"))
	if len(resp.References) == 0 {
		b.WriteString("暂无相关文献引用\n")
	} else {
		b.WriteString(referenceTable(resp.References))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n", v.paint(text.Faint, fmt.Sprintf("处理时间：%.1fs | 查询时间：%s",
		resp.ProcessingTime.Seconds(), formatQueryTime(resp.QueryTime))))

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := io.WriteString(v.out, b.String()); err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	v.shown = true
	return nil
}

func (v *TerminalView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.shown {
		return
	}
	v.shown = false
	fmt.Fprintln(v.out, v.paint(text.Faint, "结果已清除"))
}

func (v *TerminalView) paint(color text.Color, s string) string {
	if !v.color {
		return s
	}
	return color.Sprint(s)
}

func referenceTable(refs []domain.Reference) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "标题", "来源", "置信度"})
	for _, ref := range refs {
		t.AppendRow(table.Row{
			ref.ID,
			ref.Title,
			ref.Source,
			fmt.Sprintf("%.1f%%", ref.Confidence*100),
		})
	}
	return t.Render()
}

func formatQueryTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006/1/2 15:04:05")
}
