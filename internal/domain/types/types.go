// Package types contains read shapes shared between the service and its adapters.
package types

import (
	"github.com/okian/sparkapply/internal/domain/job"
	"github.com/okian/sparkapply/internal/domain/model"
)

// CardView is a snapshot of a swipe session as the client renders it.
type CardView struct {
	SessionID string    `json:"session_id"`
	Job       *job.Job  `json:"job,omitempty"`
	Cursor    int       `json:"cursor"`
	Total     int       `json:"total"`
	State     string    `json:"state"`
	Offset    float64   `json:"offset"`
	Rotation  float64   `json:"rotation"`
	Opacity   float64   `json:"opacity"`
	Details   bool      `json:"details"`
	Preview   []job.Job `json:"preview"`
}

// ApplicationStats summarizes the tracker.
type ApplicationStats struct {
	Total    int                  `json:"total"`
	ByStatus map[model.Status]int `json:"by_status"`
	Passes   int                  `json:"passes"`
}

// DecisionView is a resolved decision as reported back to the client.
type DecisionView struct {
	JobID     string `json:"job_id"`
	Direction string `json:"direction"`
	Action    string `json:"action"`
}

// GestureResult is the outcome of one gesture step plus the view after it.
type GestureResult struct {
	Outcome  string        `json:"outcome"`
	Decision *DecisionView `json:"decision,omitempty"`
	View     CardView      `json:"view"`
}
