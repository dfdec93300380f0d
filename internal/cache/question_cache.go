package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/codequiz/internal/metrics"
	"github.com/example/codequiz/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// QuestionsKey holds the JSON encoded question bank
const QuestionsKey = "codequiz:questions:all"

// Client is the subset of redis commands the cache uses
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// QuestionSource loads the question bank
type QuestionSource interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
}

// QuestionCache keeps the question bank in redis in front of a source.
// Redis failures are logged and fall through to the source.
type QuestionCache struct {
	client  Client
	source  QuestionSource
	ttl     time.Duration
	log     *logrus.Entry
	metrics *metrics.Metrics
}

// NewQuestionCache creates a cache in front of source
func NewQuestionCache(client Client, source QuestionSource, ttl time.Duration, log *logrus.Entry, m *metrics.Metrics) *QuestionCache {
	return &QuestionCache{client: client, source: source, ttl: ttl, log: log, metrics: m}
}

// NewRedisClient connects to redis and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ListQuestions returns the cached bank, loading it from the source on a miss
func (c *QuestionCache) ListQuestions(ctx context.Context) ([]models.Question, error) {
	raw, err := c.client.Get(ctx, QuestionsKey).Bytes()
	switch {
	case err == nil:
		var questions []models.Question
		decodeErr := json.Unmarshal(raw, &questions)
		if decodeErr == nil {
			c.observe("hit")
			return questions, nil
		}
		c.log.WithError(decodeErr).Warn("discarding undecodable question cache")
	case errors.Is(err, redis.Nil):
	default:
		c.log.WithError(err).Warn("question cache unavailable")
		c.observe("error")
		return c.source.ListQuestions(ctx)
	}

	c.observe("miss")
	questions, err := c.source.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	if err := c.client.Set(ctx, QuestionsKey, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("failed to fill question cache")
	}
	return questions, nil
}

// Invalidate drops the cached bank
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, QuestionsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate question cache: %w", err)
	}
	return nil
}

func (c *QuestionCache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(outcome).Inc()
	}
}
