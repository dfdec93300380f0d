package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

const progressColumns = `id, scope_key, user_id, question_id, repetitions, interval_days, easiness,
	accuracy, consecutive_correct, last_attempt_at, next_due_at, status, updated_at`

// ProgressRepository handles database operations for question progress
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListByScope returns every progress record of a scope
func (r *ProgressRepository) ListByScope(ctx context.Context, scope models.UserScope) ([]models.QuestionProgress, error) {
	progress := []models.QuestionProgress{}
	query := r.db.Rebind("SELECT " + progressColumns + " FROM question_progress WHERE scope_key = ? ORDER BY question_id")
	if err := r.db.SelectContext(ctx, &progress, query, scope.Key()); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return progress, nil
}

// Get returns the progress of one question in a scope
func (r *ProgressRepository) Get(ctx context.Context, scope models.UserScope, questionID int64) (*models.QuestionProgress, error) {
	return getProgress(ctx, r.db, scope.Key(), questionID)
}

func getProgress(ctx context.Context, q sqlx.ExtContext, scopeKey string, questionID int64) (*models.QuestionProgress, error) {
	var p models.QuestionProgress
	query := q.Rebind("SELECT " + progressColumns + " FROM question_progress WHERE scope_key = ? AND question_id = ?")
	err := sqlx.GetContext(ctx, q, &p, query, scopeKey, questionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &p, nil
}

// upsertProgress writes the single progress record of (scope, question) and sets its id
func upsertProgress(ctx context.Context, q sqlx.ExtContext, p *models.QuestionProgress) error {
	query := q.Rebind(`
		INSERT INTO question_progress (
			scope_key, user_id, question_id, repetitions, interval_days, easiness, accuracy,
			consecutive_correct, last_attempt_at, next_due_at, status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (scope_key, question_id) DO UPDATE SET
			repetitions = excluded.repetitions,
			interval_days = excluded.interval_days,
			easiness = excluded.easiness,
			accuracy = excluded.accuracy,
			consecutive_correct = excluded.consecutive_correct,
			last_attempt_at = excluded.last_attempt_at,
			next_due_at = excluded.next_due_at,
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING id`)
	err := q.QueryRowxContext(ctx, query,
		p.ScopeKey, p.UserID, p.QuestionID, p.Repetitions, p.IntervalDays, p.Easiness, p.Accuracy,
		p.ConsecutiveCorrect, p.LastAttemptAt, p.NextDueAt, string(p.Status), p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}
