package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	questionCols = []string{"id", "questionnaire", "category", "astag", "prompt", "option_a", "option_b", "option_c", "option_d", "correct", "image", "created_at"}
	attemptCols  = []string{"id", "question_id", "scope_key", "user_id", "choice", "correct", "created_at"}
	progressCols = []string{"id", "scope_key", "user_id", "question_id", "repetitions", "interval_days", "easiness", "accuracy", "consecutive_correct", "last_attempt_at", "next_due_at", "status", "updated_at"}
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestQuestionRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQuestionRepository(db)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(questionCols).
		AddRow(1, 1, "Priorités", "Art. 36", "Qui passe ?", "Moi", "Lui", "Personne", nil, "B", "q1.png", created).
		AddRow(2, 2, nil, nil, "Vitesse max ?", "50", "80", "120", "130", "A", "", created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM questions ORDER BY id")).WillReturnRows(rows)

	questions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "Priorités", *questions[0].Category)
	assert.Nil(t, questions[0].OptionD)
	assert.Nil(t, questions[1].Category)
	assert.Equal(t, "130", *questions[1].OptionD)
	assert.Equal(t, created, questions[1].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = ?")).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(questionCols).AddRow(5, 1, nil, nil, "p", "a", "b", "c", nil, "A", "", time.Now()))

		q, err := NewQuestionRepository(db).GetByID(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), q.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = ?")).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(questionCols))

		_, err := NewQuestionRepository(db).GetByID(context.Background(), 9)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuestionRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	cat := "Signalisation"
	q := &models.Question{Questionnaire: 3, Category: &cat, Prompt: "Ce panneau ?", OptionA: "a", OptionB: "b", OptionC: "c", Correct: "C"}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO questions")).
		WithArgs(3, &cat, nil, "Ce panneau ?", "a", "b", "c", nil, "C", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

	require.NoError(t, NewQuestionRepository(db).Create(context.Background(), q))
	assert.Equal(t, int64(17), q.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListByScope(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM attempts WHERE scope_key = ? ORDER BY created_at, id")).
		WithArgs("anonymous").
		WillReturnRows(sqlmock.NewRows(attemptCols).
			AddRow(1, 4, "anonymous", nil, "A", true, now).
			AddRow(2, 4, "anonymous", nil, "B", false, now))

	attempts, err := NewAttemptRepository(db).ListByScope(context.Background(), models.Anonymous())
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.True(t, attempts[0].Correct)
	assert.Nil(t, attempts[0].UserID)
	assert.Equal(t, "B", attempts[1].Choice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepository_ListByScope(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM question_progress WHERE scope_key = ?")).
		WithArgs("user:7").
		WillReturnRows(sqlmock.NewRows(progressCols).
			AddRow(1, "user:7", 7, 3, 2, 6, 2.7, 1.0, 2, now, now.AddDate(0, 0, 6), "learning", now))

	progress, err := NewProgressRepository(db).ListByScope(context.Background(), models.Identified(7))
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, models.StatusLearning, progress[0].Status)
	assert.Equal(t, int64(7), *progress[0].UserID)
	assert.Equal(t, 6, progress[0].IntervalDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordAttempt(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	userID := int64(7)
	attempt := models.Attempt{QuestionID: 3, ScopeKey: "user:7", UserID: &userID, Choice: "A", Correct: true, CreatedAt: now}

	t.Run("first attempt creates progress", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attempts")).
			WithArgs(int64(3), "user:7", &userID, "A", true, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
		mock.ExpectQuery(regexp.QuoteMeta("FROM question_progress WHERE scope_key = ? AND question_id = ?")).
			WithArgs("user:7", int64(3)).
			WillReturnRows(sqlmock.NewRows(progressCols))
		mock.ExpectQuery(regexp.QuoteMeta("FROM attempts WHERE scope_key = ? AND question_id = ?")).
			WithArgs("user:7", int64(3)).
			WillReturnRows(sqlmock.NewRows(attemptCols).AddRow(11, 3, "user:7", 7, "A", true, now))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO question_progress")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
		mock.ExpectCommit()

		var gotPrior *models.QuestionProgress
		var gotHistory []models.Attempt
		created, progress, err := store.RecordAttempt(context.Background(), attempt, func(prior *models.QuestionProgress, history []models.Attempt) models.QuestionProgress {
			gotPrior, gotHistory = prior, history
			return models.QuestionProgress{Repetitions: 1, IntervalDays: 1, Easiness: 2.6, Status: models.StatusMastered}
		})
		require.NoError(t, err)

		assert.Nil(t, gotPrior)
		assert.Len(t, gotHistory, 1)
		assert.Equal(t, int64(11), created.ID)
		assert.Equal(t, int64(21), progress.ID)
		assert.Equal(t, "user:7", progress.ScopeKey)
		assert.Equal(t, int64(3), progress.QuestionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing progress is passed to the updater", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attempts")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
		mock.ExpectQuery(regexp.QuoteMeta("FROM question_progress WHERE scope_key = ? AND question_id = ?")).
			WillReturnRows(sqlmock.NewRows(progressCols).
				AddRow(21, "user:7", 7, 3, 1, 1, 2.6, 1.0, 1, now, now.AddDate(0, 0, 1), "to_review", now))
		mock.ExpectQuery(regexp.QuoteMeta("FROM attempts WHERE scope_key = ? AND question_id = ?")).
			WillReturnRows(sqlmock.NewRows(attemptCols).
				AddRow(11, 3, "user:7", 7, "A", true, now).
				AddRow(12, 3, "user:7", 7, "A", true, now))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO question_progress")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
		mock.ExpectCommit()

		_, _, err := store.RecordAttempt(context.Background(), attempt, func(prior *models.QuestionProgress, history []models.Attempt) models.QuestionProgress {
			require.NotNil(t, prior)
			assert.Equal(t, 1, prior.Repetitions)
			assert.Len(t, history, 2)
			return *prior
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attempts")).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, _, err := store.RecordAttempt(context.Background(), attempt, func(*models.QuestionProgress, []models.Attempt) models.QuestionProgress {
			t.Fatal("updater must not run")
			return models.QuestionProgress{}
		})
		assert.ErrorContains(t, err, "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetUsersForNotification(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE notification_enabled = ? AND notification_hour = ?")).
		WithArgs(true, 9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "is_admin", "notification_enabled", "notification_hour", "created_at", "updated_at"}).
			AddRow(100, "alice", "Alice", false, true, 9, now, now))

	users, err := NewUserRepository(db).GetUsersForNotification(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(100), users[0].ID)
	assert.Equal(t, 9, users[0].NotificationHour)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateNotificationSettings(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET notification_enabled = ?")).
		WithArgs(false, 20, int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepository(db).UpdateNotificationSettings(context.Background(), 100, false, 20)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepository_DueCount(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM question_progress WHERE scope_key = ? AND next_due_at <= ?")).
		WithArgs("user:5", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := NewStatisticsRepository(db).DueCount(context.Background(), models.Identified(5), now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
