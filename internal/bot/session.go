package bot

import (
	"sync"
	"time"

	"github.com/example/codequiz/pkg/models"
)

const (
	modeExam     = "exam"
	modeTraining = "training"
)

// quizSession is a user's ongoing exam or training run
type quizSession struct {
	mu sync.Mutex

	Mode      string
	Questions []models.Question
	Current   int
	Correct   int
	Answered  int
	StartedAt time.Time
	Deadline  time.Time

	timer stopper
	done  bool
}

// stopper cancels a pending timer; *time.Timer satisfies it
type stopper interface {
	Stop() bool
}

// close marks the session finished and cancels its deadline timer.
// The caller holds s.mu.
func (s *quizSession) close() {
	s.done = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// CurrentQuestion returns the question awaiting an answer
func (s *quizSession) CurrentQuestion() (models.Question, bool) {
	if s.Current < 0 || s.Current >= len(s.Questions) {
		return models.Question{}, false
	}
	return s.Questions[s.Current], true
}

// Expired reports whether a timed session ran out of time
func (s *quizSession) Expired(now time.Time) bool {
	return !s.Deadline.IsZero() && now.After(s.Deadline)
}

// sessionStore keeps sessions by user ID
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*quizSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*quizSession)}
}

func (s *sessionStore) get(userID int64) (*quizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// set stores sess and returns the session it replaced, if any
func (s *sessionStore) set(userID int64, sess *quizSession) *quizSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[userID]
	s.sessions[userID] = sess
	return prev
}

// is reports whether sess is the user's current session
func (s *sessionStore) is(userID int64, sess *quizSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID] == sess
}

// remove deletes the user's session only if it is still sess
func (s *sessionStore) remove(userID int64, sess *quizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] == sess {
		delete(s.sessions, userID)
	}
}
