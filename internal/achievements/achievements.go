package achievements

import "github.com/example/codequiz/internal/statistics"

// Rule is one trophy and the condition that unlocks it
type Rule struct {
	Code        string
	Title       string
	Description string
	Check       func(statistics.UserStats) bool
}

// Achievement is a rule evaluated for one user
type Achievement struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// Rules is the trophy table in display order
var Rules = []Rule{
	{
		Code:        "first_answer",
		Title:       "Premier pas",
		Description: "Répondre à une première question",
		Check:       func(s statistics.UserStats) bool { return s.TotalAttempts >= 1 },
	},
	{
		Code:        "answers_100",
		Title:       "Assidu",
		Description: "Répondre à 100 questions",
		Check:       func(s statistics.UserStats) bool { return s.TotalAttempts >= 100 },
	},
	{
		Code:        "answers_1000",
		Title:       "Infatigable",
		Description: "Répondre à 1000 questions",
		Check:       func(s statistics.UserStats) bool { return s.TotalAttempts >= 1000 },
	},
	{
		Code:        "streak_10",
		Title:       "Sans faute",
		Description: "Enchaîner 10 bonnes réponses",
		Check:       func(s statistics.UserStats) bool { return s.LongestStreak >= 10 },
	},
	{
		Code:        "mastered_50",
		Title:       "Expert",
		Description: "Maîtriser 50 questions",
		Check:       func(s statistics.UserStats) bool { return s.MasteredQuestions >= 50 },
	},
	{
		Code:        "first_exam",
		Title:       "Candidat",
		Description: "Terminer un premier examen blanc",
		Check:       func(s statistics.UserStats) bool { return s.ExamsTaken >= 1 },
	},
	{
		Code:        "first_pass",
		Title:       "Reçu",
		Description: "Réussir un examen blanc",
		Check:       func(s statistics.UserStats) bool { return s.ExamsPassed >= 1 },
	},
	{
		Code:        "perfect_exam",
		Title:       "Parfait",
		Description: "Réussir un examen blanc sans aucune erreur",
		Check:       func(s statistics.UserStats) bool { return s.PerfectExams >= 1 },
	},
	{
		Code:        "categories_5",
		Title:       "Polyvalent",
		Description: "S'entraîner dans 5 catégories",
		Check:       func(s statistics.UserStats) bool { return s.CategoriesPracticed >= 5 },
	},
}

// Evaluate returns every achievement with its unlocked flag
func Evaluate(stats statistics.UserStats) []Achievement {
	out := make([]Achievement, 0, len(Rules))
	for _, r := range Rules {
		out = append(out, Achievement{
			Code:        r.Code,
			Title:       r.Title,
			Description: r.Description,
			Unlocked:    r.Check(stats),
		})
	}
	return out
}

// Unlocked returns the achievements stats qualify for
func Unlocked(stats statistics.UserStats) []Achievement {
	var out []Achievement
	for _, a := range Evaluate(stats) {
		if a.Unlocked {
			out = append(out, a)
		}
	}
	return out
}

// NewlyUnlocked returns the achievements unlocked by after but not by before
func NewlyUnlocked(before, after statistics.UserStats) []Achievement {
	var out []Achievement
	for _, r := range Rules {
		if r.Check(after) && !r.Check(before) {
			out = append(out, Achievement{Code: r.Code, Title: r.Title, Description: r.Description, Unlocked: true})
		}
	}
	return out
}
