package domain

import (
	"strings"
	"time"
)

// ValidationResult is the normalized form of an accepted query.
type ValidationResult struct {
	Query          string `json:"query"`
	DomainRelevant bool   `json:"domain_relevant"`
}

type Reference struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	URL        string  `json:"url,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Link returns the reference URL, or "" when it is absent or a "#"
// placeholder.
func (r Reference) Link() string {
	url := strings.TrimSpace(r.URL)
	if url == "#" {
		return ""
	}
	return url
}

// QueryResponse is produced once per request and discarded after rendering.
type QueryResponse struct {
	Answer         string        `json:"answer"`
	References     []Reference   `json:"references"`
	QueryTime      time.Time     `json:"query_time"`
	ProcessingTime time.Duration `json:"processing_time"`
}
