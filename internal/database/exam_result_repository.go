package database

import (
	"context"
	"fmt"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ExamResultRepository handles database operations for exam results
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository creates a new repository instance
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

// Create inserts an exam result and sets its id. A reused session ID
// yields ErrConflict.
func (r *ExamResultRepository) Create(ctx context.Context, res *models.ExamResult) error {
	query := r.db.Rebind(`
		INSERT INTO exam_results (session_id, scope_key, user_id, total, correct, passed, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		res.SessionID, res.ScopeKey, res.UserID, res.Total, res.Correct, res.Passed, res.DurationSeconds, res.CreatedAt,
	).Scan(&res.ID)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("exam session %s: %w", res.SessionID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create exam result: %w", err)
	}
	return nil
}

// ListByScope returns the exam results of a scope, oldest first
func (r *ExamResultRepository) ListByScope(ctx context.Context, scope models.UserScope) ([]models.ExamResult, error) {
	results := []models.ExamResult{}
	query := r.db.Rebind(`
		SELECT id, session_id, scope_key, user_id, total, correct, passed, duration_seconds, created_at
		FROM exam_results WHERE scope_key = ? ORDER BY created_at, id`)
	if err := r.db.SelectContext(ctx, &results, query, scope.Key()); err != nil {
		return nil, fmt.Errorf("failed to list exam results: %w", err)
	}
	return results, nil
}
