// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/tcd/internal/domain/formula"
)

// Assessment is one team evaluation submitted for batch scoring. Input
// already carries the resolved industry factors.
type Assessment struct {
	ID          string
	Team        string
	Industry    string
	Input       formula.Input
	SubmittedAt time.Time
}

// Status is the lifecycle state of a batch assessment.
type Status string

// Assessment states.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is the stored outcome of an assessment.
type Record struct {
	ID          string          `json:"id"`
	Team        string          `json:"team,omitempty"`
	Industry    string          `json:"industry,omitempty"`
	Status      Status          `json:"status"`
	Result      *formula.Result `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CompletedAt time.Time       `json:"completed_at,omitzero"`
}

// Done reports whether the record reached a terminal state.
func (r Record) Done() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
