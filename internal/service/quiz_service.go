package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/codequiz/internal/achievements"
	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/internal/metrics"
	"github.com/example/codequiz/internal/selection"
	"github.com/example/codequiz/internal/spaced_repetition"
	"github.com/example/codequiz/internal/statistics"
	"github.com/example/codequiz/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Repository supplies and stores the quiz data of every user scope
type Repository interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ListAttempts(ctx context.Context, scope models.UserScope) ([]models.Attempt, error)
	ListProgress(ctx context.Context, scope models.UserScope) ([]models.QuestionProgress, error)
	// RecordAttempt stores the attempt and the progress computed by update
	// atomically with respect to other attempts on the same question and scope
	RecordAttempt(ctx context.Context, attempt models.Attempt, update database.ProgressUpdater) (*models.Attempt, *models.QuestionProgress, error)
	CreateExamResult(ctx context.Context, res *models.ExamResult) error
	ListExamResults(ctx context.Context, scope models.UserScope) ([]models.ExamResult, error)
}

// QuestionSource loads the question bank, possibly from a cache
type QuestionSource interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
}

// Config tunes the quiz service
type Config struct {
	ExamPassRatio float64
	AvoidRecentN  int
}

// DefaultConfig returns the stock settings: 35 of 40 to pass
func DefaultConfig() Config {
	return Config{ExamPassRatio: 0.875, AvoidRecentN: selection.DefaultAvoidRecentN}
}

// QuizService implements exam generation, training ordering, attempt
// recording and progress reporting over a Repository
type QuizService struct {
	repo      Repository
	questions QuestionSource
	selector  *selection.Selector
	sm2       *spaced_repetition.SM2
	validate  *validator.Validate
	cfg       Config
	log       *logrus.Entry
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewQuizService creates the service
func NewQuizService(repo Repository, selector *selection.Selector, sm2 *spaced_repetition.SM2, cfg Config, log *logrus.Entry, m *metrics.Metrics) *QuizService {
	return &QuizService{
		repo:      repo,
		questions: repo,
		selector:  selector,
		sm2:       sm2,
		validate:  newValidator(),
		cfg:       cfg,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// WithQuestionSource reads the question bank from src instead of the repository
func (s *QuizService) WithQuestionSource(src QuestionSource) *QuizService {
	s.questions = src
	return s
}

// WithClock replaces the wall clock
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// ExamRequest asks for an exam
type ExamRequest struct {
	Scope        models.UserScope
	Count        int
	Filters      selection.Filters
	Weights      selection.WeightOverrides
	AvoidRecentN *int
}

// TrainingRequest asks for a training order
type TrainingRequest struct {
	Scope   models.UserScope
	Filters selection.Filters
	Weights selection.WeightOverrides
}

// AttemptRequest records one answer
type AttemptRequest struct {
	Scope      models.UserScope `json:"-" validate:"-"`
	QuestionID int64            `json:"questionId" validate:"gt=0"`
	Choice     string           `json:"choix" validate:"required,option_letter"`
	// Correct is the client's own verdict. The stored verdict is always
	// computed from the question.
	Correct *bool `json:"correct"`
}

// AttemptResult is a stored attempt with the progress it produced
type AttemptResult struct {
	Attempt       models.Attempt          `json:"attempt"`
	Progress      models.QuestionProgress `json:"progress"`
	CorrectChoice string                  `json:"correctChoice"`
}

// ExamResultRequest reports a finished exam
type ExamResultRequest struct {
	Scope           models.UserScope `json:"-" validate:"-"`
	SessionID       string           `json:"sessionId" validate:"omitempty,uuid"`
	Total           int              `json:"total" validate:"gt=0"`
	Correct         int              `json:"correct" validate:"gte=0,ltefield=Total"`
	DurationSeconds int              `json:"durationSeconds" validate:"gte=0"`
}

// ExamOutcome is a stored exam result and the trophies it unlocked
type ExamOutcome struct {
	Result          models.ExamResult          `json:"result"`
	NewAchievements []achievements.Achievement `json:"newAchievements"`
}

// DashboardResult is the progress overview of a scope
type DashboardResult struct {
	Progress     statistics.Dashboard       `json:"progress"`
	Stats        statistics.UserStats       `json:"stats"`
	Achievements []achievements.Achievement `json:"achievements"`
}

type snapshot struct {
	questions []models.Question
	attempts  []models.Attempt
	progress  []models.QuestionProgress
}

func (s snapshot) progressByQuestion() map[int64]models.QuestionProgress {
	out := make(map[int64]models.QuestionProgress, len(s.progress))
	for _, p := range s.progress {
		out[p.QuestionID] = p
	}
	return out
}

func (s *QuizService) load(ctx context.Context, scope models.UserScope) (snapshot, error) {
	var snap snapshot
	var err error
	if snap.questions, err = s.questions.ListQuestions(ctx); err != nil {
		return snap, fmt.Errorf("failed to load questions: %w", err)
	}
	if snap.attempts, err = s.repo.ListAttempts(ctx, scope); err != nil {
		return snap, fmt.Errorf("failed to load attempts: %w", err)
	}
	if snap.progress, err = s.repo.ListProgress(ctx, scope); err != nil {
		return snap, fmt.Errorf("failed to load progress: %w", err)
	}
	return snap, nil
}

func (s *QuizService) reportOrphans(scope models.UserScope, orphans int) {
	if orphans == 0 {
		return
	}
	s.metrics.OrphanAttempts.Add(float64(orphans))
	s.log.WithFields(logrus.Fields{"scope": scope.Key(), "orphans": orphans}).
		Debug("skipped attempts on missing questions")
}

// GenerateExam assembles an exam for the scope
func (s *QuizService) GenerateExam(ctx context.Context, req ExamRequest) (*selection.ExamResult, error) {
	if req.Count <= 0 {
		return nil, &selection.ValidationError{Field: "count", Message: "must be greater than zero"}
	}
	if req.AvoidRecentN == nil {
		n := s.cfg.AvoidRecentN
		req.AvoidRecentN = &n
	}

	snap, err := s.load(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.selector.SelectExam(selection.ExamParams{
		Questions:    snap.questions,
		Attempts:     snap.attempts,
		Progress:     snap.progressByQuestion(),
		Count:        req.Count,
		Filters:      req.Filters,
		Weights:      req.Weights,
		AvoidRecentN: req.AvoidRecentN,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SelectionDuration.WithLabelValues("exam").Observe(time.Since(start).Seconds())
	s.metrics.ExamsGenerated.Inc()
	s.reportOrphans(req.Scope, res.Metadata.OrphanAttempts)

	if res.Metadata.Shortfall > 0 {
		s.metrics.ExamShortfalls.Inc()
		s.log.WithFields(logrus.Fields{
			"scope":     req.Scope.Key(),
			"requested": req.Count,
			"selected":  res.Metadata.TotalSelected,
		}).Info("question pool smaller than requested exam")
	}
	return &res, nil
}

// OrderTraining ranks the filtered pool of the scope by priority
func (s *QuizService) OrderTraining(ctx context.Context, req TrainingRequest) (*selection.TrainingResult, error) {
	snap, err := s.load(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := s.selector.SortForTraining(selection.TrainingParams{
		Questions: snap.questions,
		Attempts:  snap.attempts,
		Progress:  snap.progressByQuestion(),
		Filters:   req.Filters,
		Weights:   req.Weights,
	})
	s.metrics.SelectionDuration.WithLabelValues("training").Observe(time.Since(start).Seconds())
	s.metrics.TrainingOrders.Inc()
	s.reportOrphans(req.Scope, res.Metadata.OrphanAttempts)
	return &res, nil
}

// RecordAttempt stores an answer and updates the progress of its question
// before returning
func (s *QuizService) RecordAttempt(ctx context.Context, req AttemptRequest) (*AttemptResult, error) {
	req.Choice = strings.ToUpper(strings.TrimSpace(req.Choice))
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	q, err := s.repo.GetQuestion(ctx, req.QuestionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if _, ok := q.Options()[req.Choice]; !ok {
		return nil, fieldError("choix", "is not an option of this question")
	}

	correct := q.IsCorrect(req.Choice)
	if req.Correct != nil && *req.Correct != correct {
		s.log.WithFields(logrus.Fields{
			"question_id": q.ID,
			"choice":      req.Choice,
			"client":      *req.Correct,
		}).Warn("client correctness disagrees with answer key")
	}

	now := s.now().UTC()
	attempt := models.Attempt{
		QuestionID: q.ID,
		ScopeKey:   req.Scope.Key(),
		UserID:     req.Scope.Ptr(),
		Choice:     req.Choice,
		Correct:    correct,
		CreatedAt:  now,
	}
	created, progress, err := s.repo.RecordAttempt(ctx, attempt, func(prior *models.QuestionProgress, history []models.Attempt) models.QuestionProgress {
		return s.sm2.Apply(prior, history, correct, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	s.metrics.ObserveAttempt(correct)
	s.log.WithFields(logrus.Fields{
		"scope":       req.Scope.Key(),
		"question_id": q.ID,
		"correct":     correct,
		"status":      progress.Status,
		"interval":    progress.IntervalDays,
	}).Debug("attempt recorded")

	return &AttemptResult{Attempt: *created, Progress: *progress, CorrectChoice: q.Correct}, nil
}

// GlobalMetrics summarizes the bank and the attempts of the scope
func (s *QuizService) GlobalMetrics(ctx context.Context, scope models.UserScope) (*statistics.Global, error) {
	questions, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	attempts, err := s.repo.ListAttempts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	g := statistics.GlobalMetrics(questions, attempts)
	s.reportOrphans(scope, g.OrphanAttempts)
	return &g, nil
}

// Dashboard reports learning progress and achievements of the scope
func (s *QuizService) Dashboard(ctx context.Context, scope models.UserScope) (*DashboardResult, error) {
	snap, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	exams, err := s.repo.ListExamResults(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam results: %w", err)
	}

	stats := statistics.BuildUserStats(snap.questions, snap.attempts, snap.progress, exams)
	return &DashboardResult{
		Progress:     statistics.ProgressSummary(snap.questions, snap.progress, s.now()),
		Stats:        stats,
		Achievements: achievements.Evaluate(stats),
	}, nil
}

// RecordExamResult stores a finished exam and reports newly unlocked trophies
func (s *QuizService) RecordExamResult(ctx context.Context, req ExamResultRequest) (*ExamOutcome, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	sessionID := uuid.New()
	if req.SessionID != "" {
		sessionID = uuid.MustParse(req.SessionID)
	}

	snap, err := s.load(ctx, req.Scope)
	if err != nil {
		return nil, err
	}
	exams, err := s.repo.ListExamResults(ctx, req.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam results: %w", err)
	}
	for _, e := range exams {
		if req.SessionID != "" && e.SessionID == sessionID {
			// resubmission of a stored session
			return &ExamOutcome{Result: e, NewAchievements: []achievements.Achievement{}}, nil
		}
	}
	before := statistics.BuildUserStats(snap.questions, snap.attempts, snap.progress, exams)

	res := models.ExamResult{
		SessionID:       sessionID,
		ScopeKey:        req.Scope.Key(),
		UserID:          req.Scope.Ptr(),
		Total:           req.Total,
		Correct:         req.Correct,
		Passed:          Passed(req.Correct, req.Total, s.cfg.ExamPassRatio),
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateExamResult(ctx, &res); errors.Is(err, database.ErrConflict) {
		return nil, ErrDuplicateSession
	} else if err != nil {
		return nil, fmt.Errorf("failed to store exam result: %w", err)
	}

	after := statistics.BuildUserStats(snap.questions, snap.attempts, snap.progress, append(exams, res))
	s.log.WithFields(logrus.Fields{
		"scope":   req.Scope.Key(),
		"session": sessionID.String(),
		"score":   fmt.Sprintf("%d/%d", req.Correct, req.Total),
		"passed":  res.Passed,
	}).Info("exam finished")

	return &ExamOutcome{Result: res, NewAchievements: achievements.NewlyUnlocked(before, after)}, nil
}

// Passed applies the pass mark to an exam score
func Passed(correct, total int, ratio float64) bool {
	if total <= 0 {
		return false
	}
	return float64(correct) >= ratio*float64(total)-1e-9
}
