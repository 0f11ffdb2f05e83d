package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFiles embed.FS

// Renderer owns the page templates and the policy applied to answer markup.
type Renderer struct {
	templates *template.Template
	policy    *bluemonday.Policy
}

func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatTime":     formatTime,
		"formatDuration": formatDuration,
		"noticeClass":    noticeClass,
		"millis":         func(d time.Duration) int64 { return d.Milliseconds() },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(
		templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		templates: tmpl,
		policy:    bluemonday.UGCPolicy(),
	}, nil
}

// StaticFS serves the stylesheet.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	return r.templates.ExecuteTemplate(w, "page.html", data)
}

// RenderResult renders the result card for an already sanitized query.
func (r *Renderer) RenderResult(sanitizedQuery string, resp *domain.QueryResponse) (template.HTML, error) {
	if resp == nil {
		return "", fmt.Errorf("render result: nil response")
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "result", r.buildResult(sanitizedQuery, resp)); err != nil {
		return "", fmt.Errorf("render result: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006/1/2 15:04:05")
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func noticeClass(category domain.Category) string {
	switch category {
	case domain.CategoryEmptyInput, domain.CategoryTooLong:
		return "notice-warning"
	case domain.CategoryRateLimited:
		return "notice-limit"
	default:
		return "notice-error"
	}
}
