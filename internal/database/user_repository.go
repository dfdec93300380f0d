package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/codequiz/pkg/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, username, first_name, is_admin, notification_enabled, notification_hour, created_at, updated_at"

// UserRepository handles database operations for bot users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// Upsert inserts a new user or refreshes the profile of an existing one.
// Notification settings and the admin flag of an existing user are kept.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, username, first_name, is_admin, notification_enabled, notification_hour)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			updated_at = CURRENT_TIMESTAMP
		RETURNING is_admin, notification_enabled, notification_hour`)
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.IsAdmin, user.NotificationEnabled, user.NotificationHour,
	).Scan(&user.IsAdmin, &user.NotificationEnabled, &user.NotificationHour)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// UpdateNotificationSettings changes when and whether a user gets reminders
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, id int64, enabled bool, hour int) error {
	query := r.db.Rebind(`
		UPDATE users SET notification_enabled = ?, notification_hour = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, enabled, hour, id)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUsersForNotification returns users who want reminders at the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	users := []models.User{}
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE notification_enabled = ? AND notification_hour = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
