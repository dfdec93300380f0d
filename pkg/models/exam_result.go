package models

import (
	"time"

	"github.com/google/uuid"
)

// ExamResult is the outcome of one completed exam session
type ExamResult struct {
	ID              int64     `json:"id" db:"id"`
	SessionID       uuid.UUID `json:"sessionId" db:"session_id"`
	ScopeKey        string    `json:"-" db:"scope_key"`
	UserID          *int64    `json:"userId" db:"user_id"`
	Total           int       `json:"total" db:"total"`
	Correct         int       `json:"correct" db:"correct"`
	Passed          bool      `json:"passed" db:"passed"`
	DurationSeconds int       `json:"durationSeconds" db:"duration_seconds"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// Perfect reports whether every question was answered correctly
func (r ExamResult) Perfect() bool {
	return r.Total > 0 && r.Correct == r.Total
}
