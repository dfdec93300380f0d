package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

const questionColumns = `id, questionnaire, category, astag, prompt, option_a, option_b, option_c,
	option_d, correct, image, created_at`

// QuestionRepository handles database operations for questions
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new repository instance
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// List returns the whole question bank ordered by id
func (r *QuestionRepository) List(ctx context.Context) ([]models.Question, error) {
	questions := []models.Question{}
	query := "SELECT " + questionColumns + " FROM questions ORDER BY id"
	if err := r.db.SelectContext(ctx, &questions, query); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// GetByID returns one question
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	query := r.db.Rebind("SELECT " + questionColumns + " FROM questions WHERE id = ?")
	err := r.db.GetContext(ctx, &q, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &q, nil
}

// FindByPrompt returns the question of a questionnaire with the given prompt
func (r *QuestionRepository) FindByPrompt(ctx context.Context, questionnaire int, prompt string) (*models.Question, error) {
	var q models.Question
	query := r.db.Rebind("SELECT " + questionColumns + " FROM questions WHERE questionnaire = ? AND prompt = ?")
	err := r.db.GetContext(ctx, &q, query, questionnaire, prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return &q, nil
}

// Count returns the number of questions
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM questions"); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// Create inserts a question and sets its id
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	query := r.db.Rebind(`
		INSERT INTO questions (
			questionnaire, category, astag, prompt, option_a, option_b, option_c, option_d, correct, image, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowxContext(ctx, query,
		q.Questionnaire, q.Category, q.Astag, q.Prompt,
		q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.Correct, q.Image, q.CreatedAt,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// Update rewrites the content of an existing question
func (r *QuestionRepository) Update(ctx context.Context, q *models.Question) error {
	query := r.db.Rebind(`
		UPDATE questions SET
			questionnaire = ?, category = ?, astag = ?, prompt = ?,
			option_a = ?, option_b = ?, option_c = ?, option_d = ?, correct = ?, image = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		q.Questionnaire, q.Category, q.Astag, q.Prompt,
		q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.Correct, q.Image, q.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
