package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
)

type resultModel struct {
	Query          template.HTML
	Paragraphs     []template.HTML
	References     []referenceModel
	ProcessingTime time.Duration
	QueryTime      time.Time
}

type referenceModel struct {
	ID         int
	Title      template.HTML
	Source     template.HTML
	URL        string
	Confidence string
}

// The query arrives escaped by the controller. Titles and sources are
// escaped here with the same mapping; answer paragraphs are markup and go
// through the HTML policy.
func (r *Renderer) buildResult(sanitizedQuery string, resp *domain.QueryResponse) resultModel {
	model := resultModel{
		Query:          template.HTML(sanitizedQuery),
		ProcessingTime: resp.ProcessingTime,
		QueryTime:      resp.QueryTime,
	}
	for _, paragraph := range splitParagraphs(resp.Answer) {
		model.Paragraphs = append(model.Paragraphs, template.HTML(r.policy.Sanitize(paragraph)))
	}
	for _, ref := range resp.References {
		model.References = append(model.References, referenceModel{
			ID:         ref.ID,
			Title:      template.HTML(policy.Sanitize(ref.Title)),
			Source:     template.HTML(policy.Sanitize(ref.Source)),
			URL:        ref.Link(),
			Confidence: fmt.Sprintf("%.1f%%", ref.Confidence*100),
		})
	}
	return model
}

func splitParagraphs(answer string) []string {
	parts := strings.Split(answer, "\n\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
