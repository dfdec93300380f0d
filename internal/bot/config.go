package bot

import (
	"time"
)

// Config represents the configuration for the bot
type Config struct {
	Token        string
	AdminUserIDs []int64
	// Number of questions in an exam
	ExamSize int
	// Time allowed to finish an exam
	ExamDuration time.Duration
	// Reminder hour given to new users
	DefaultNotificationHour int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() Config {
	return Config{
		ExamSize:                40,
		ExamDuration:            30 * time.Minute,
		DefaultNotificationHour: 9,
	}
}
