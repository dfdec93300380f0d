package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/codequiz/internal/metrics"
	"github.com/example/codequiz/pkg/models"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Default reminder window, in UTC hours
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Notifier delivers review reminders
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// UserSource lists the users who want a reminder at a given hour
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// DueCounter counts the questions of a scope that are due for review
type DueCounter interface {
	DueCount(ctx context.Context, scope models.UserScope, now time.Time) (int, error)
}

// Window is the range of hours, inclusive, in which reminders are sent
type Window struct {
	StartHour int
	EndHour   int
}

// DefaultWindow returns the stock reminder window
func DefaultWindow() Window {
	return Window{StartHour: DefaultNotificationStartHour, EndHour: DefaultNotificationEndHour}
}

// Contains reports whether hour falls inside the window
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	due       DueCounter
	window    Window
	log       *logrus.Entry
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, users UserSource, due DueCounter, window Window, log *logrus.Entry, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		due:       due,
		window:    window,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(s.now())).Do(func() {
		if err := s.CheckAndSendReminders(context.Background()); err != nil {
			s.log.WithError(err).Error("reminder check failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.WithFields(logrus.Fields{
		"start_hour": s.window.StartHour,
		"end_hour":   s.window.EndHour,
	}).Info("reminder scheduler started")
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSendReminders reminds every user whose notification hour is the
// current UTC hour and who has questions due
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) error {
	now := s.now().UTC()
	hour := now.Hour()

	if !s.window.Contains(hour) {
		s.log.WithFields(logrus.Fields{
			"hour":       hour,
			"start_hour": s.window.StartHour,
			"end_hour":   s.window.EndHour,
		}).Debug("outside notification hours, skipping reminders")
		return nil
	}

	users, err := s.users.GetUsersForNotification(ctx, hour)
	if err != nil {
		return fmt.Errorf("failed to get users for notification: %w", err)
	}

	for _, user := range users {
		if err := s.remind(ctx, user.ID, now); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to remind user")
		}
	}
	return nil
}

// RunManualCheck forces a check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	return s.remind(ctx, userID, s.now().UTC())
}

func (s *Scheduler) remind(ctx context.Context, userID int64, now time.Time) error {
	count, err := s.due.DueCount(ctx, models.Identified(userID), now)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	if err := s.notifier.SendReminders(userID, count); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	s.metrics.RemindersSent.Inc()
	s.log.WithFields(logrus.Fields{"user_id": userID, "due": count}).Info("reminder sent")
	return nil
}

func nextHour(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(time.Hour)
}
