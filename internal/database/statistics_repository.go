package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

// Overview holds instance-wide counters for administrators
type Overview struct {
	Questions   int `db:"questions"`
	Users       int `db:"users"`
	Attempts    int `db:"attempts"`
	Exams       int `db:"exams"`
	ExamsPassed int `db:"exams_passed"`
}

// StatisticsRepository runs aggregate queries
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// DueCount returns how many questions of a scope are due at now
func (r *StatisticsRepository) DueCount(ctx context.Context, scope models.UserScope, now time.Time) (int, error) {
	var n int
	query := r.db.Rebind("SELECT COUNT(*) FROM question_progress WHERE scope_key = ? AND next_due_at <= ?")
	if err := r.db.GetContext(ctx, &n, query, scope.Key(), now.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count due questions: %w", err)
	}
	return n, nil
}

// Overview returns instance-wide counters
func (r *StatisticsRepository) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	query := r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM questions) AS questions,
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM attempts) AS attempts,
			(SELECT COUNT(*) FROM exam_results) AS exams,
			(SELECT COUNT(*) FROM exam_results WHERE passed = ?) AS exams_passed`)
	if err := r.db.GetContext(ctx, &o, query, true); err != nil {
		return nil, fmt.Errorf("failed to get overview: %w", err)
	}
	return &o, nil
}
