package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"DB_TYPE", "DB_PATH", "DATABASE_URL", "HTTP_ADDR", "TELEGRAM_BOT_TOKEN", "ADMIN_USER_IDS",
	"ENABLE_SCHEDULER", "NOTIFICATION_START_HOUR", "NOTIFICATION_END_HOUR", "EXAM_SIZE",
	"EXAM_PASS_RATIO", "AVOID_RECENT_N", "RANDOM_SEED", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"REDIS_TTL", "QUESTIONS_FILE", "LOG_LEVEL",
}

// clearEnv blanks every key for the duration of the test
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "data/codequiz.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 40, cfg.ExamSize)
	assert.Equal(t, 0.875, cfg.ExamPassRatio)
	assert.Equal(t, 40, cfg.AvoidRecentN)
	assert.Equal(t, 4, cfg.NotificationStartHour)
	assert.Equal(t, 18, cfg.NotificationEndHour)
	assert.Equal(t, 10*time.Minute, cfg.RedisTTL)
	assert.True(t, cfg.EnableScheduler)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.BotEnabled())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range keys {
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "EXAM_SIZE=20\nADMIN_USER_IDS=1, 2\nREDIS_ADDR=localhost:6379\nREDIS_TTL=1m\nENABLE_SCHEDULER=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.ExamSize)
	assert.Equal(t, []int64{1, 2}, cfg.AdminUserIDs)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, time.Minute, cfg.RedisTTL)
	assert.False(t, cfg.EnableScheduler)

	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_TYPE": "mysql"}},
		{"postgres without url", map[string]string{"DB_TYPE": "postgres"}},
		{"exam size", map[string]string{"EXAM_SIZE": "0"}},
		{"not a number", map[string]string{"EXAM_SIZE": "forty"}},
		{"pass ratio", map[string]string{"EXAM_PASS_RATIO": "1.5"}},
		{"hour range", map[string]string{"NOTIFICATION_START_HOUR": "25"}},
		{"inverted window", map[string]string{"NOTIFICATION_START_HOUR": "20", "NOTIFICATION_END_HOUR": "8"}},
		{"admin ids", map[string]string{"ADMIN_USER_IDS": "1,abc"}},
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
