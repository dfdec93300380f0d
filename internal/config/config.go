package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment
type Config struct {
	// Database
	DBType      string `validate:"oneof=sqlite postgres"`
	DBPath      string `validate:"required_if=DBType sqlite"`
	DatabaseURL string `validate:"required_if=DBType postgres"`

	// Transports
	HTTPAddr         string `validate:"required"`
	TelegramBotToken string
	AdminUserIDs     []int64

	// Reminders
	EnableScheduler       bool
	NotificationStartHour int `validate:"min=0,max=23"`
	NotificationEndHour   int `validate:"min=0,max=23,gtefield=NotificationStartHour"`

	// Exams
	ExamSize      int     `validate:"min=1,max=200"`
	ExamPassRatio float64 `validate:"gt=0,lte=1"`
	AvoidRecentN  int     `validate:"min=0"`
	RandomSeed    int64

	// Question cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"min=0"`
	RedisTTL      time.Duration

	// Seeding
	QuestionsFile string

	LogLevel string `validate:"omitempty,oneof=debug info warn warning error"`
}

// Load reads an optional .env file and then the environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		DBType:           strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBPath:           getEnv("DB_PATH", "data/codequiz.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		EnableScheduler:  os.Getenv("ENABLE_SCHEDULER") != "false",
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		QuestionsFile:    os.Getenv("QUESTIONS_FILE"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RandomSeed:       time.Now().UnixNano(),
	}

	var err error
	if cfg.NotificationStartHour, err = getInt("NOTIFICATION_START_HOUR", 4); err != nil {
		return nil, err
	}
	if cfg.NotificationEndHour, err = getInt("NOTIFICATION_END_HOUR", 18); err != nil {
		return nil, err
	}
	if cfg.ExamSize, err = getInt("EXAM_SIZE", 40); err != nil {
		return nil, err
	}
	if cfg.AvoidRecentN, err = getInt("AVOID_RECENT_N", 40); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ExamPassRatio, err = getFloat("EXAM_PASS_RATIO", 0.875); err != nil {
		return nil, err
	}
	if cfg.RedisTTL, err = getDuration("REDIS_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		if cfg.RandomSeed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid RANDOM_SEED: %w", err)
		}
	}
	if cfg.AdminUserIDs, err = parseIDs(os.Getenv("ADMIN_USER_IDS")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects out-of-range settings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CacheEnabled reports whether a redis question cache is configured
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// BotEnabled reports whether the Telegram transport is configured
func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin user ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
