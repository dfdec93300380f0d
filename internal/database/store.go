package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ProgressUpdater computes the new progress of a question from its prior
// progress (nil on the first attempt) and its chronological history,
// which already contains the attempt being recorded
type ProgressUpdater func(prior *models.QuestionProgress, history []models.Attempt) models.QuestionProgress

// Store bundles the repositories over one connection
type Store struct {
	db *sqlx.DB

	Questions  *QuestionRepository
	Attempts   *AttemptRepository
	Progress   *ProgressRepository
	Exams      *ExamResultRepository
	Users      *UserRepository
	Statistics *StatisticsRepository
}

// NewStore creates a store over db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:         db,
		Questions:  NewQuestionRepository(db),
		Attempts:   NewAttemptRepository(db),
		Progress:   NewProgressRepository(db),
		Exams:      NewExamResultRepository(db),
		Users:      NewUserRepository(db),
		Statistics: NewStatisticsRepository(db),
	}
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ListQuestions returns the question bank
func (s *Store) ListQuestions(ctx context.Context) ([]models.Question, error) {
	return s.Questions.List(ctx)
}

// GetQuestion returns one question or ErrNotFound
func (s *Store) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	return s.Questions.GetByID(ctx, id)
}

// ListAttempts returns the attempts of a scope in chronological order
func (s *Store) ListAttempts(ctx context.Context, scope models.UserScope) ([]models.Attempt, error) {
	return s.Attempts.ListByScope(ctx, scope)
}

// ListProgress returns the progress records of a scope
func (s *Store) ListProgress(ctx context.Context, scope models.UserScope) ([]models.QuestionProgress, error) {
	return s.Progress.ListByScope(ctx, scope)
}

// CreateExamResult stores an exam outcome
func (s *Store) CreateExamResult(ctx context.Context, res *models.ExamResult) error {
	return s.Exams.Create(ctx, res)
}

// ListExamResults returns the exam outcomes of a scope
func (s *Store) ListExamResults(ctx context.Context, scope models.UserScope) ([]models.ExamResult, error) {
	return s.Exams.ListByScope(ctx, scope)
}

// RecordAttempt appends the attempt and rewrites the progress of its
// (scope, question) pair in one transaction. Concurrent attempts on the
// same pair are serialized: by the single connection on sqlite and by a
// transaction-scoped advisory lock on postgres.
func (s *Store) RecordAttempt(ctx context.Context, attempt models.Attempt, update ProgressUpdater) (*models.Attempt, *models.QuestionProgress, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if isPostgres(tx) {
		lockKey := fmt.Sprintf("%s:%d", attempt.ScopeKey, attempt.QuestionID)
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
			return nil, nil, fmt.Errorf("failed to lock progress: %w", err)
		}
	}

	attempt.CreatedAt = attempt.CreatedAt.UTC()
	if err := insertAttempt(ctx, tx, &attempt); err != nil {
		return nil, nil, err
	}

	prior, err := getProgress(ctx, tx, attempt.ScopeKey, attempt.QuestionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	history, err := questionHistory(ctx, tx, attempt.ScopeKey, attempt.QuestionID)
	if err != nil {
		return nil, nil, err
	}

	next := update(prior, history)
	next.ScopeKey = attempt.ScopeKey
	next.UserID = attempt.UserID
	next.QuestionID = attempt.QuestionID
	if err := upsertProgress(ctx, tx, &next); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit attempt: %w", err)
	}
	return &attempt, &next, nil
}
