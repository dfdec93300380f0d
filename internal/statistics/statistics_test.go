package statistics

import (
	"testing"
	"time"

	"github.com/example/codequiz/pkg/models"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func q(id int64, category string) models.Question {
	question := models.Question{ID: id, OptionA: "a", OptionB: "b", OptionC: "c", Correct: "A"}
	if category != "" {
		question.Category = &category
	}
	return question
}

func a(questionID int64, correct bool, minute int) models.Attempt {
	return models.Attempt{QuestionID: questionID, Correct: correct, CreatedAt: now.Add(time.Duration(minute) * time.Minute)}
}

func TestGlobalMetrics(t *testing.T) {
	questions := []models.Question{q(1, "Vitesse"), q(2, "Vitesse"), q(3, "Priorités"), q(4, "")}
	attempts := []models.Attempt{
		a(1, true, 0),
		a(1, false, 1),
		a(2, true, 2),
		a(3, true, 3),
		a(99, false, 4),
	}

	g := GlobalMetrics(questions, attempts)
	assert.Equal(t, 4, g.TotalQuestions)
	assert.Equal(t, 4, g.TotalAttempts)
	assert.Equal(t, 3, g.UniqueQuestionsAttempted)
	assert.Equal(t, 1, g.NeverSeenCount)
	assert.InDelta(t, 0.75, g.OverallSuccessRate, 1e-9)
	assert.Equal(t, 1, g.OrphanAttempts)
	assert.Zero(t, g.Mastered)
	assert.Zero(t, g.Struggling)
	assert.Equal(t, map[string]int{"Vitesse": 2, "Priorités": 1, models.UncategorizedLabel: 1}, g.CategoryDistribution)
}

func TestGlobalMetrics_LearningProgress(t *testing.T) {
	questions := []models.Question{q(1, ""), q(2, ""), q(3, ""), q(4, ""), q(5, "")}
	attempts := []models.Attempt{
		a(1, true, 0), a(1, true, 1), a(1, true, 2), // mastered
		a(2, false, 3), a(2, false, 4), a(2, true, 5), // struggling
		a(3, true, 6), a(3, true, 7), // too few attempts to be mastered
		a(4, false, 8),                                   // struggling
		a(99, true, 9), a(99, true, 10), a(99, true, 11), // orphan
	}

	g := GlobalMetrics(questions, attempts)
	assert.Equal(t, 1, g.Mastered)
	assert.Equal(t, 2, g.Struggling)
	assert.Equal(t, 1, g.NeverSeenCount)
}

func TestThresholds(t *testing.T) {
	assert.True(t, IsStruggling(0.49))
	assert.False(t, IsStruggling(0.5))
	assert.True(t, IsMastered(3, 0.85))
	assert.False(t, IsMastered(2, 1))
	assert.False(t, IsMastered(10, 0.8))
}

func TestGlobalMetrics_Empty(t *testing.T) {
	g := GlobalMetrics(nil, nil)
	assert.Equal(t, 0, g.TotalQuestions)
	assert.Equal(t, 0.0, g.OverallSuccessRate)
	assert.NotNil(t, g.CategoryDistribution)
}

func TestProgressSummary(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)
	questions := []models.Question{q(1, ""), q(2, ""), q(3, ""), q(4, "")}
	progress := []models.QuestionProgress{
		{QuestionID: 1, Status: models.StatusMastered, Easiness: 2.8, ConsecutiveCorrect: 4, NextDueAt: &future},
		{QuestionID: 2, Status: models.StatusToReview, Easiness: 2.2, NextDueAt: &past},
		{QuestionID: 77, Status: models.StatusLearning, Easiness: 1.3},
	}

	d := ProgressSummary(questions, progress, now)
	assert.Equal(t, map[models.Status]int{
		models.StatusNotSeen:  2,
		models.StatusLearning: 0,
		models.StatusToReview: 1,
		models.StatusMastered: 1,
	}, d.ByStatus)
	assert.Equal(t, 1, d.DueNow)
	assert.Equal(t, 4, d.BestStreak)
	assert.InDelta(t, 2.5, d.AverageEasiness, 1e-9)
}

func TestBuildUserStats(t *testing.T) {
	questions := []models.Question{q(1, "Vitesse"), q(2, "Priorités"), q(3, "")}
	attempts := []models.Attempt{
		a(1, true, 5),
		a(2, true, 1),
		a(3, false, 3),
		a(1, true, 4),
		a(2, true, 2),
		a(50, true, 6),
	}
	progress := []models.QuestionProgress{
		{QuestionID: 1, Status: models.StatusMastered},
		{QuestionID: 2, Status: models.StatusLearning},
		{QuestionID: 50, Status: models.StatusMastered},
	}
	exams := []models.ExamResult{
		{Total: 40, Correct: 40, Passed: true},
		{Total: 40, Correct: 30, Passed: false},
	}

	s := BuildUserStats(questions, attempts, progress, exams)
	assert.Equal(t, UserStats{
		TotalAttempts:       5,
		CorrectAttempts:     4,
		LongestStreak:       2,
		MasteredQuestions:   1,
		ExamsTaken:          2,
		ExamsPassed:         1,
		PerfectExams:        1,
		CategoriesPracticed: 3,
	}, s)
}

func TestLongestStreak(t *testing.T) {
	assert.Equal(t, 0, LongestStreak(nil))
	assert.Equal(t, 3, LongestStreak([]models.Attempt{a(1, true, 3), a(1, true, 1), a(1, false, 4), a(1, true, 2)}))
}
