package domain

import "time"

type QueryStatus string

const (
	StatusAnswered QueryStatus = "answered"
	StatusRejected QueryStatus = "rejected"
	StatusFailed   QueryStatus = "failed"
	StatusBusy     QueryStatus = "busy"
)

// Outcome describes what happened to a single submission.
type Outcome struct {
	Status     QueryStatus
	Query      string
	Sanitized  string
	Validation ValidationResult
	Response   *QueryResponse
	Notice     *UserMessage
	Err        error
	Duration   time.Duration
}

// QueryEvent is the record published to the event stream after each submission.
type QueryEvent struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id,omitempty"`
	Status         QueryStatus `json:"status"`
	Category       Category    `json:"category,omitempty"`
	DomainRelevant bool        `json:"domain_relevant"`
	References     int         `json:"references"`
	DurationMS     float64     `json:"duration_ms"`
	At             time.Time   `json:"at"`
}
