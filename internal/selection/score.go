package selection

import (
	"math"
	"time"

	"github.com/example/codequiz/pkg/models"
)

// NeverAttemptedDays is the days-since-last-attempt value of a question
// that was never attempted
const NeverAttemptedDays = 999

const (
	maxScore           = 100.0
	staleAfterDays     = 7
	maxStalenessFactor = 10.0
)

// Metrics describes the attempt history of one question
type Metrics struct {
	SuccessRate          float64 `json:"successRate"`
	AttemptCount         int     `json:"attemptCount"`
	DaysSinceLastAttempt int     `json:"daysSinceLastAttempt"`
	NeverSeen            bool    `json:"neverSeen"`
	Category             string  `json:"category"`
}

// ScoredQuestion is a question with its priority score
type ScoredQuestion struct {
	models.Question
	Score   float64 `json:"score"`
	Metrics Metrics `json:"metrics"`
}

// Calculator computes priority scores
type Calculator struct {
	Weights Weights
	Now     func() time.Time
}

// NewCalculator creates a calculator using the wall clock
func NewCalculator(w Weights) *Calculator {
	return &Calculator{Weights: w, Now: time.Now}
}

// Score computes the priority of q from the attempts made on it
func (c *Calculator) Score(q models.Question, attempts []models.Attempt) ScoredQuestion {
	m := Metrics{
		AttemptCount:         len(attempts),
		NeverSeen:            len(attempts) == 0,
		DaysSinceLastAttempt: NeverAttemptedDays,
		Category:             q.CategoryLabel(),
	}

	if !m.NeverSeen {
		correct := 0
		var last time.Time
		for _, a := range attempts {
			if a.Correct {
				correct++
			}
			if a.CreatedAt.After(last) {
				last = a.CreatedAt
			}
		}
		m.SuccessRate = float64(correct) / float64(len(attempts))
		m.DaysSinceLastAttempt = int(math.Floor(c.Now().Sub(last).Hours() / 24))
	}

	score := 0.0
	if m.NeverSeen {
		score += c.Weights.NeverSeen
	}
	score += (1 - m.SuccessRate) * c.Weights.FailureRate
	if m.DaysSinceLastAttempt > staleAfterDays {
		score += math.Min(float64(m.DaysSinceLastAttempt)/7, maxStalenessFactor) * c.Weights.TimeSinceLastAttempt
	}

	return ScoredQuestion{
		Question: q,
		Score:    math.Max(0, math.Min(maxScore, score)),
		Metrics:  m,
	}
}

// GroupAttempts indexes attempts by question id. Attempts whose question
// is not in questions are dropped and counted as orphans.
func GroupAttempts(questions []models.Question, attempts []models.Attempt) (map[int64][]models.Attempt, int) {
	known := make(map[int64]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	byQuestion := make(map[int64][]models.Attempt)
	orphans := 0
	for _, a := range attempts {
		if _, ok := known[a.QuestionID]; !ok {
			orphans++
			continue
		}
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	return byQuestion, orphans
}

// ScoreAll scores every question against a pre-grouped attempt index
func (c *Calculator) ScoreAll(questions []models.Question, byQuestion map[int64][]models.Attempt) []ScoredQuestion {
	scored := make([]ScoredQuestion, 0, len(questions))
	for _, q := range questions {
		scored = append(scored, c.Score(q, byQuestion[q.ID]))
	}
	return scored
}
