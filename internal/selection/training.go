package selection

import (
	"sort"

	"github.com/example/codequiz/internal/statistics"
	"github.com/example/codequiz/pkg/models"
)

const topPriorityCount = 10

// Priority reasons
const (
	ReasonNeverSeen  = "Jamais vue"
	ReasonStruggling = "En difficulté"
	ReasonStale      = "Pas vue récemment"
	ReasonReview     = "Révision"
)

// TrainingParams describes one training request over a snapshot of one user scope
type TrainingParams struct {
	Questions []models.Question
	Attempts  []models.Attempt
	Progress  map[int64]models.QuestionProgress
	Filters   Filters
	Weights   WeightOverrides
}

// LearningProgress counts questions by learning stage
type LearningProgress struct {
	NeverSeen  int `json:"neverSeen"`
	Struggling int `json:"struggling"`
	Mastered   int `json:"mastered"`
}

// Priority summarizes why a question ranks high
type Priority struct {
	ID       int64   `json:"id"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Reason   string  `json:"reason"`
}

// TrainingMetadata describes a training order
type TrainingMetadata struct {
	TotalQuestions   int              `json:"totalQuestions"`
	LearningProgress LearningProgress `json:"learningProgress"`
	TopPriorities    []Priority       `json:"topPriorities"`
	OrphanAttempts   int              `json:"-"`
}

// TrainingResult is the whole filtered pool ranked by priority
type TrainingResult struct {
	Questions []ScoredQuestion `json:"questions"`
	Metadata  TrainingMetadata `json:"metadata"`
}

// SortForTraining ranks the filtered pool by descending score. Equal
// scores keep their input order.
func (s *Selector) SortForTraining(p TrainingParams) TrainingResult {
	pool := p.Filters.Apply(p.Questions, p.Progress)
	byQuestion, orphans := GroupAttempts(p.Questions, p.Attempts)

	scored := s.calculator(p.Weights).ScoreAll(pool, byQuestion)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	meta := TrainingMetadata{
		TotalQuestions: len(scored),
		TopPriorities:  make([]Priority, 0, topPriorityCount),
		OrphanAttempts: orphans,
	}
	for i, sq := range scored {
		m := sq.Metrics
		switch {
		case m.NeverSeen:
			meta.LearningProgress.NeverSeen++
		case statistics.IsStruggling(m.SuccessRate):
			meta.LearningProgress.Struggling++
		case statistics.IsMastered(m.AttemptCount, m.SuccessRate):
			meta.LearningProgress.Mastered++
		}
		if i < topPriorityCount {
			meta.TopPriorities = append(meta.TopPriorities, Priority{
				ID:       sq.ID,
				Score:    sq.Score,
				Category: m.Category,
				Reason:   Reason(m),
			})
		}
	}

	return TrainingResult{Questions: scored, Metadata: meta}
}

// Reason explains the priority of a scored question
func Reason(m Metrics) string {
	switch {
	case m.NeverSeen:
		return ReasonNeverSeen
	case statistics.IsStruggling(m.SuccessRate):
		return ReasonStruggling
	case m.DaysSinceLastAttempt > staleAfterDays:
		return ReasonStale
	default:
		return ReasonReview
	}
}
