package statistics

import (
	"sort"
	"time"

	"github.com/example/codequiz/pkg/models"
)

// Dashboard summarizes the learning state of one user scope
type Dashboard struct {
	ByStatus        map[models.Status]int `json:"byStatus"`
	DueNow          int                   `json:"dueNow"`
	AverageEasiness float64               `json:"averageEasiness"`
	BestStreak      int                   `json:"bestStreak"`
}

// ProgressSummary counts questions per status. Questions without a
// progress record are not_seen; records of unknown questions are ignored.
func ProgressSummary(questions []models.Question, progress []models.QuestionProgress, now time.Time) Dashboard {
	d := Dashboard{ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, s := range models.Statuses {
		d.ByStatus[s] = 0
	}

	byQuestion := make(map[int64]models.QuestionProgress, len(progress))
	for _, p := range progress {
		byQuestion[p.QuestionID] = p
	}

	var easinessSum float64
	var tracked int
	for _, q := range questions {
		p, ok := byQuestion[q.ID]
		if !ok {
			d.ByStatus[models.StatusNotSeen]++
			continue
		}
		status := p.Status
		if status == "" {
			status = models.StatusNotSeen
		}
		d.ByStatus[status]++
		if p.IsDue(now) {
			d.DueNow++
		}
		if p.ConsecutiveCorrect > d.BestStreak {
			d.BestStreak = p.ConsecutiveCorrect
		}
		easinessSum += p.Easiness
		tracked++
	}
	if tracked > 0 {
		d.AverageEasiness = easinessSum / float64(tracked)
	}
	return d
}

// UserStats are the aggregates achievements are evaluated against
type UserStats struct {
	TotalAttempts       int `json:"totalAttempts"`
	CorrectAttempts     int `json:"correctAttempts"`
	LongestStreak       int `json:"longestStreak"`
	MasteredQuestions   int `json:"masteredQuestions"`
	ExamsTaken          int `json:"examsTaken"`
	ExamsPassed         int `json:"examsPassed"`
	PerfectExams        int `json:"perfectExams"`
	CategoriesPracticed int `json:"categoriesPracticed"`
}

// BuildUserStats aggregates the history of one user scope
func BuildUserStats(questions []models.Question, attempts []models.Attempt, progress []models.QuestionProgress, exams []models.ExamResult) UserStats {
	var s UserStats

	byID := make(map[int64]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	valid := make([]models.Attempt, 0, len(attempts))
	categories := make(map[string]struct{})
	for _, a := range attempts {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		valid = append(valid, a)
		categories[q.CategoryLabel()] = struct{}{}
		if a.Correct {
			s.CorrectAttempts++
		}
	}
	s.TotalAttempts = len(valid)
	s.CategoriesPracticed = len(categories)
	s.LongestStreak = LongestStreak(valid)

	for _, p := range progress {
		if _, ok := byID[p.QuestionID]; ok && p.Status == models.StatusMastered {
			s.MasteredQuestions++
		}
	}

	for _, e := range exams {
		s.ExamsTaken++
		if e.Passed {
			s.ExamsPassed++
		}
		if e.Perfect() {
			s.PerfectExams++
		}
	}
	return s
}

// LongestStreak returns the longest run of correct answers in time order
func LongestStreak(attempts []models.Attempt) int {
	sorted := make([]models.Attempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	best, run := 0, 0
	for _, a := range sorted {
		if !a.Correct {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}
