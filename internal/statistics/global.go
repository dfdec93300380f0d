package statistics

import "github.com/example/codequiz/pkg/models"

// Global summarizes the question bank and an attempt history
type Global struct {
	TotalQuestions           int            `json:"totalQuestions"`
	TotalAttempts            int            `json:"totalAttempts"`
	UniqueQuestionsAttempted int            `json:"uniqueQuestionsAttempted"`
	NeverSeenCount           int            `json:"neverSeenCount"`
	OverallSuccessRate       float64        `json:"overallSuccessRate"`
	CategoryDistribution     map[string]int `json:"categoryDistribution"`
	// Mastered and Struggling classify attempted questions by success rate
	Mastered   int `json:"mastered"`
	Struggling int `json:"struggling"`
	// OrphanAttempts counts attempts on questions missing from the bank.
	// They are excluded from every other field.
	OrphanAttempts int `json:"orphanAttempts"`
}

const (
	strugglingRate      = 0.5
	masteredRate        = 0.85
	masteredMinAttempts = 3
)

// IsStruggling reports whether an attempted question is mostly failed
func IsStruggling(successRate float64) bool {
	return successRate < strugglingRate
}

// IsMastered reports whether a question was answered often and well enough
func IsMastered(attempts int, successRate float64) bool {
	return attempts >= masteredMinAttempts && successRate >= masteredRate
}

// GlobalMetrics aggregates attempts, already restricted to one user scope,
// against the question bank
func GlobalMetrics(questions []models.Question, attempts []models.Attempt) Global {
	g := Global{
		TotalQuestions:       len(questions),
		CategoryDistribution: make(map[string]int),
	}

	known := make(map[int64]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
		g.CategoryDistribution[q.CategoryLabel()]++
	}

	type tally struct{ total, correct int }
	attempted := make(map[int64]*tally)
	correct := 0
	for _, a := range attempts {
		if _, ok := known[a.QuestionID]; !ok {
			g.OrphanAttempts++
			continue
		}
		g.TotalAttempts++
		t, ok := attempted[a.QuestionID]
		if !ok {
			t = &tally{}
			attempted[a.QuestionID] = t
		}
		t.total++
		if a.Correct {
			t.correct++
			correct++
		}
	}

	for _, t := range attempted {
		rate := float64(t.correct) / float64(t.total)
		switch {
		case IsStruggling(rate):
			g.Struggling++
		case IsMastered(t.total, rate):
			g.Mastered++
		}
	}

	g.UniqueQuestionsAttempted = len(attempted)
	g.NeverSeenCount = g.TotalQuestions - g.UniqueQuestionsAttempted
	if g.TotalAttempts > 0 {
		g.OverallSuccessRate = float64(correct) / float64(g.TotalAttempts)
	}
	return g
}
