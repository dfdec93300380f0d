package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/codequiz/internal/logger"
	"github.com/example/codequiz/internal/metrics"
	"github.com/example/codequiz/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentReminder struct {
	userID int64
	count  int
}

type fakeNotifier struct {
	sent []sentReminder
	fail map[int64]bool
}

func (f *fakeNotifier) SendReminders(userID int64, count int) error {
	if f.fail[userID] {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, sentReminder{userID, count})
	return nil
}

type fakeUsers struct {
	byHour map[int][]models.User
	hours  []int
}

func (f *fakeUsers) GetUsersForNotification(_ context.Context, hour int) ([]models.User, error) {
	f.hours = append(f.hours, hour)
	return f.byHour[hour], nil
}

type fakeDue map[string]int

func (f fakeDue) DueCount(_ context.Context, scope models.UserScope, _ time.Time) (int, error) {
	return f[scope.Key()], nil
}

func newTestScheduler(n Notifier, users UserSource, due DueCounter, at time.Time) (*Scheduler, *metrics.Metrics) {
	m := metrics.New()
	s := New(n, users, due, DefaultWindow(), logger.Discard(), m).WithClock(func() time.Time { return at })
	return s, m
}

func TestCheckAndSendReminders(t *testing.T) {
	at := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	notifier := &fakeNotifier{fail: map[int64]bool{3: true}}
	users := &fakeUsers{byHour: map[int][]models.User{9: {{ID: 1}, {ID: 2}, {ID: 3}}}}
	due := fakeDue{"user:1": 4, "user:3": 2}

	s, m := newTestScheduler(notifier, users, due, at)
	require.NoError(t, s.CheckAndSendReminders(context.Background()))

	assert.Equal(t, []int{9}, users.hours)
	assert.Equal(t, []sentReminder{{1, 4}}, notifier.sent, "users without due questions or failing delivery get nothing")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersSent))
}

func TestCheckAndSendReminders_OutsideWindow(t *testing.T) {
	at := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	users := &fakeUsers{byHour: map[int][]models.User{22: {{ID: 1}}}}

	s, _ := newTestScheduler(notifier, users, fakeDue{"user:1": 5}, at)
	require.NoError(t, s.CheckAndSendReminders(context.Background()))

	assert.Empty(t, users.hours)
	assert.Empty(t, notifier.sent)
}

func TestRunManualCheck(t *testing.T) {
	at := time.Date(2024, 6, 15, 23, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	s, _ := newTestScheduler(notifier, &fakeUsers{}, fakeDue{"user:7": 12}, at)

	require.NoError(t, s.RunManualCheck(context.Background(), 7))
	require.NoError(t, s.RunManualCheck(context.Background(), 8))
	assert.Equal(t, []sentReminder{{7, 12}}, notifier.sent)
}

func TestWindow(t *testing.T) {
	w := Window{StartHour: 8, EndHour: 20}
	assert.False(t, w.Contains(7))
	assert.True(t, w.Contains(8))
	assert.True(t, w.Contains(20))
	assert.False(t, w.Contains(21))
}

func TestNextHour(t *testing.T) {
	got := nextHour(time.Date(2024, 6, 15, 9, 41, 12, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), got)
}
