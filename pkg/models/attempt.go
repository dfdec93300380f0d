package models

import "time"

// Attempt is one recorded answer. Attempts are append-only.
type Attempt struct {
	ID         int64     `json:"id" db:"id"`
	QuestionID int64     `json:"questionId" db:"question_id"`
	ScopeKey   string    `json:"-" db:"scope_key"`
	UserID     *int64    `json:"userId" db:"user_id"`
	Choice     string    `json:"choix" db:"choice"`
	Correct    bool      `json:"correct" db:"correct"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
