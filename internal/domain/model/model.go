// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/sparkapply/internal/domain/swipe"
)

// Decision is a resolved swipe handed to the application-submission flow.
type Decision struct {
	ID        string          // unique id, assigned when the decision is emitted
	SessionID string          // swipe session that produced it
	JobID     string          // posting the decision is about
	Direction swipe.Direction // left = pass, right = apply
	At        time.Time
}

// Status is a column of the application tracker.
type Status string

// Tracker columns, in pipeline order.
const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// Statuses lists every tracker column in display order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusSent, StatusInterview, StatusOffer, StatusRejected}
}

// Valid reports whether s names a tracker column.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

var transitions = map[Status][]Status{ //nolint:gochecknoglobals // fixed kanban rules
	StatusDraft:     {StatusSent},
	StatusSent:      {StatusInterview, StatusRejected},
	StatusInterview: {StatusOffer, StatusRejected},
}

// CanMove reports whether an application may move from s to next.
func (s Status) CanMove(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Application is one entry of the tracker.
type Application struct {
	ID         string    `json:"id"`
	DecisionID string    `json:"decision_id"`
	SessionID  string    `json:"session_id"`
	JobID      string    `json:"job_id"`
	JobTitle   string    `json:"job_title"`
	Company    string    `json:"company"`
	Location   string    `json:"location"`
	Salary     string    `json:"salary"`
	Status     Status    `json:"status"`
	MatchScore int       `json:"match_score"`
	Notes      string    `json:"notes,omitempty"`
	Highlights []string  `json:"highlights,omitempty"`
	AppliedAt  time.Time `json:"applied_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
