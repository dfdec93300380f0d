package database

import (
	"context"
	"fmt"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

const attemptColumns = "id, question_id, scope_key, user_id, choice, correct, created_at"

// AttemptRepository handles database operations for attempts.
// Attempts are append-only: there is no update or delete.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository creates a new repository instance
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// ListByScope returns the attempts of a scope in chronological order
func (r *AttemptRepository) ListByScope(ctx context.Context, scope models.UserScope) ([]models.Attempt, error) {
	attempts := []models.Attempt{}
	query := r.db.Rebind("SELECT " + attemptColumns + " FROM attempts WHERE scope_key = ? ORDER BY created_at, id")
	if err := r.db.SelectContext(ctx, &attempts, query, scope.Key()); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

// Count returns the number of attempts in every scope
func (r *AttemptRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM attempts"); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}

// insert appends an attempt and sets its id
func insertAttempt(ctx context.Context, q sqlx.ExtContext, a *models.Attempt) error {
	query := q.Rebind(`
		INSERT INTO attempts (question_id, scope_key, user_id, choice, correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := q.QueryRowxContext(ctx, query, a.QuestionID, a.ScopeKey, a.UserID, a.Choice, a.Correct, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// questionHistory returns the attempts on one question of a scope in chronological order
func questionHistory(ctx context.Context, q sqlx.ExtContext, scopeKey string, questionID int64) ([]models.Attempt, error) {
	attempts := []models.Attempt{}
	query := q.Rebind("SELECT " + attemptColumns + " FROM attempts WHERE scope_key = ? AND question_id = ? ORDER BY created_at, id")
	if err := sqlx.SelectContext(ctx, q, &attempts, query, scopeKey, questionID); err != nil {
		return nil, fmt.Errorf("failed to list question history: %w", err)
	}
	return attempts, nil
}
