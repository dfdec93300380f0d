package models

import "time"

// Status is the coarse learning state of a question
type Status string

const (
	StatusNotSeen  Status = "not_seen"
	StatusLearning Status = "learning"
	StatusToReview Status = "to_review"
	StatusMastered Status = "mastered"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusNotSeen, StatusLearning, StatusToReview, StatusMastered}

// QuestionProgress is the SM-2 learning state of one question in one user scope
type QuestionProgress struct {
	ID                 int64      `json:"id" db:"id"`
	ScopeKey           string     `json:"-" db:"scope_key"`
	UserID             *int64     `json:"userId" db:"user_id"`
	QuestionID         int64      `json:"questionId" db:"question_id"`
	Repetitions        int        `json:"repetitions" db:"repetitions"`
	IntervalDays       int        `json:"intervalDays" db:"interval_days"`
	Easiness           float64    `json:"easiness" db:"easiness"`
	Accuracy           float64    `json:"accuracy" db:"accuracy"` // Over the last 5 attempts
	ConsecutiveCorrect int        `json:"consecutiveCorrect" db:"consecutive_correct"`
	LastAttemptAt      *time.Time `json:"lastAttemptAt" db:"last_attempt_at"`
	NextDueAt          *time.Time `json:"nextDueAt" db:"next_due_at"`
	Status             Status     `json:"status" db:"status"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsDue reports whether the progress has a due date at or before now
func (p QuestionProgress) IsDue(now time.Time) bool {
	return p.NextDueAt != nil && !p.NextDueAt.After(now)
}
