package achievements

import (
	"testing"

	"github.com/example/codequiz/internal/statistics"
	"github.com/stretchr/testify/assert"
)

func codes(list []Achievement) []string {
	var out []string
	for _, a := range list {
		out = append(out, a.Code)
	}
	return out
}

func TestEvaluate_Empty(t *testing.T) {
	all := Evaluate(statistics.UserStats{})
	assert.Len(t, all, len(Rules))
	for _, a := range all {
		assert.False(t, a.Unlocked, a.Code)
	}
	assert.Empty(t, Unlocked(statistics.UserStats{}))
}

func TestUnlocked(t *testing.T) {
	tests := []struct {
		name  string
		stats statistics.UserStats
		want  []string
	}{
		{"first answer", statistics.UserStats{TotalAttempts: 1}, []string{"first_answer"}},
		{"hundred answers and a streak", statistics.UserStats{TotalAttempts: 150, LongestStreak: 12}, []string{"first_answer", "answers_100", "streak_10"}},
		{"failed exam", statistics.UserStats{ExamsTaken: 1}, []string{"first_exam"}},
		{"perfect exam", statistics.UserStats{ExamsTaken: 1, ExamsPassed: 1, PerfectExams: 1}, []string{"first_exam", "first_pass", "perfect_exam"}},
		{"breadth", statistics.UserStats{TotalAttempts: 1000, MasteredQuestions: 50, CategoriesPracticed: 5}, []string{"first_answer", "answers_100", "answers_1000", "mastered_50", "categories_5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Unlocked(tt.stats)))
		})
	}
}

func TestNewlyUnlocked(t *testing.T) {
	before := statistics.UserStats{TotalAttempts: 99, ExamsTaken: 2}
	after := statistics.UserStats{TotalAttempts: 100, ExamsTaken: 3, ExamsPassed: 1}
	assert.Equal(t, []string{"answers_100", "first_pass"}, codes(NewlyUnlocked(before, after)))
	assert.Empty(t, NewlyUnlocked(after, after))
}

func TestRuleCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range Rules {
		assert.False(t, seen[r.Code], r.Code)
		seen[r.Code] = true
	}
}
