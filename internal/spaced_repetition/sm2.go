package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/codequiz/pkg/models"
)

// AccuracyWindow is the number of most recent attempts accuracy is computed over
const AccuracyWindow = 5

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Lower bound of the easiness factor
	MinEasiness float64
	// Initial repetition intervals in days
	InitialIntervals []int
	// Interval after a wrong answer
	MinInterval int
	// Upper bound of the interval, 0 means uncapped
	MaxInterval int
}

// NewSM2 creates a new SM2 instance with the default settings
func NewSM2() *SM2 {
	return &SM2{
		MinEasiness:      1.3,
		InitialIntervals: []int{1, 6},
		MinInterval:      1,
		MaxInterval:      0,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Incorrect response but the correct answer felt familiar
	QualityIncorrect QualityResponse = 2
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// State is the scheduling part of a question's progress
type State struct {
	Repetitions  int
	IntervalDays int
	Easiness     float64
}

// DefaultState is the state of a never-seen question
func DefaultState() State {
	return State{Repetitions: 0, IntervalDays: 0, Easiness: 2.5}
}

// StateOf extracts the scheduling state from a persisted progress record
func StateOf(p *models.QuestionProgress) State {
	if p == nil {
		return DefaultState()
	}
	st := State{Repetitions: p.Repetitions, IntervalDays: p.IntervalDays, Easiness: p.Easiness}
	if st.Easiness <= 0 {
		st.Easiness = DefaultState().Easiness
	}
	return st
}

// Quality maps answer correctness onto the SM-2 quality scale
func Quality(correct bool) QualityResponse {
	if correct {
		return QualityPerfect
	}
	return QualityIncorrect
}

// Update computes the next state after one answer
func (sm *SM2) Update(prior State, correct bool) State {
	q := float64(Quality(correct))

	// Calculate the easiness factor (EF)
	ef := prior.Easiness + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if ef < sm.MinEasiness {
		ef = sm.MinEasiness
	}

	if !correct {
		return State{Repetitions: 0, IntervalDays: sm.MinInterval, Easiness: ef}
	}

	reps := prior.Repetitions + 1
	var interval int
	if reps <= len(sm.InitialIntervals) {
		interval = sm.InitialIntervals[reps-1]
	} else {
		interval = int(math.Round(float64(prior.IntervalDays) * ef))
	}
	// Consecutive correct repetitions always lengthen the interval
	if reps > 1 && interval <= prior.IntervalDays {
		interval = prior.IntervalDays + 1
	}
	if interval < sm.MinInterval {
		interval = sm.MinInterval
	}
	if sm.MaxInterval > 0 && interval > sm.MaxInterval {
		interval = sm.MaxInterval
	}

	return State{Repetitions: reps, IntervalDays: interval, Easiness: ef}
}

// RecentAccuracy returns the share of correct answers among the last n
// attempts of a chronological history
func RecentAccuracy(history []models.Attempt, n int) float64 {
	if len(history) == 0 || n <= 0 {
		return 0
	}
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	recent := history[start:]
	correct := 0
	for _, a := range recent {
		if a.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(recent))
}

// TrailingStreak counts the correct answers at the end of a chronological history
func TrailingStreak(history []models.Attempt) int {
	streak := 0
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Correct {
			break
		}
		streak++
	}
	return streak
}

// DeriveStatus maps streak, accuracy and interval onto a status label
func DeriveStatus(consecutiveCorrect int, accuracy float64, intervalDays int) models.Status {
	switch {
	case consecutiveCorrect >= 3 || accuracy >= 0.85:
		return models.StatusMastered
	case intervalDays <= 1:
		return models.StatusToReview
	default:
		return models.StatusLearning
	}
}

// Apply computes the progress record that follows an attempt.
// history is the chronological attempt list of the question in the scope,
// including the attempt being applied.
func (sm *SM2) Apply(prior *models.QuestionProgress, history []models.Attempt, correct bool, now time.Time) models.QuestionProgress {
	next := sm.Update(StateOf(prior), correct)

	var p models.QuestionProgress
	if prior != nil {
		p = *prior
	}
	p.Repetitions = next.Repetitions
	p.IntervalDays = next.IntervalDays
	p.Easiness = next.Easiness
	p.Accuracy = RecentAccuracy(history, AccuracyWindow)
	p.ConsecutiveCorrect = TrailingStreak(history)
	p.Status = DeriveStatus(p.ConsecutiveCorrect, p.Accuracy, p.IntervalDays)

	last := now
	due := now.AddDate(0, 0, p.IntervalDays)
	p.LastAttemptAt = &last
	p.NextDueAt = &due
	p.UpdatedAt = now
	return p
}
