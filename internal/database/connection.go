package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert hits a unique constraint
var ErrConflict = errors.New("already exists")

// isUniqueViolation recognizes unique constraint failures of both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Supported DB_TYPE values
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the database
type Config struct {
	Type string // sqlite or postgres
	Path string // sqlite file
	URL  string // postgres connection string
}

// Connect establishes a connection to the database and creates the schema
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch cfg.Type {
	case DriverPostgres:
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	case DriverSQLite, "":
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.ConnectContext(ctx, "sqlite3", cfg.Path+"?_loc=UTC")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isPostgres(q sqlx.ExtContext) bool {
	return q.DriverName() == "postgres"
}

// InitSchema creates the tables if they don't exist
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	realType := "REAL"
	if isPostgres(db) {
		idColumn = "BIGSERIAL PRIMARY KEY"
		realType = "DOUBLE PRECISION"
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"questions", `
			CREATE TABLE IF NOT EXISTS questions (
				id ` + idColumn + `,
				questionnaire INTEGER NOT NULL,
				category TEXT,
				astag TEXT,
				prompt TEXT NOT NULL,
				option_a TEXT NOT NULL,
				option_b TEXT NOT NULL,
				option_c TEXT NOT NULL,
				option_d TEXT,
				correct TEXT NOT NULL,
				image TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(questionnaire, prompt)
			)`},
		{"attempts", `
			CREATE TABLE IF NOT EXISTS attempts (
				id ` + idColumn + `,
				question_id BIGINT NOT NULL,
				scope_key TEXT NOT NULL,
				user_id BIGINT,
				choice TEXT NOT NULL,
				correct BOOLEAN NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"question_progress", `
			CREATE TABLE IF NOT EXISTS question_progress (
				id ` + idColumn + `,
				scope_key TEXT NOT NULL,
				user_id BIGINT,
				question_id BIGINT NOT NULL,
				repetitions INTEGER NOT NULL DEFAULT 0,
				interval_days INTEGER NOT NULL DEFAULT 0,
				easiness ` + realType + ` NOT NULL DEFAULT 2.5,
				accuracy ` + realType + ` NOT NULL DEFAULT 0,
				consecutive_correct INTEGER NOT NULL DEFAULT 0,
				last_attempt_at TIMESTAMP,
				next_due_at TIMESTAMP,
				status TEXT NOT NULL DEFAULT 'not_seen',
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(scope_key, question_id)
			)`},
		{"exam_results", `
			CREATE TABLE IF NOT EXISTS exam_results (
				id ` + idColumn + `,
				session_id TEXT NOT NULL UNIQUE,
				scope_key TEXT NOT NULL,
				user_id BIGINT,
				total INTEGER NOT NULL,
				correct INTEGER NOT NULL,
				passed BOOLEAN NOT NULL,
				duration_seconds INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				is_admin BOOLEAN NOT NULL DEFAULT FALSE,
				notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
	}

	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_attempts_scope ON attempts (scope_key, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_attempts_scope_question ON attempts (scope_key, question_id)",
		"CREATE INDEX IF NOT EXISTS idx_exam_results_scope ON exam_results (scope_key)",
	}
	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
