package bot

import (
	"fmt"
	"strings"

	"github.com/example/codequiz/internal/achievements"
	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/internal/service"
	"github.com/example/codequiz/pkg/models"
)

var statusLabels = map[models.Status]string{
	models.StatusNotSeen:  "Jamais vues",
	models.StatusLearning: "En apprentissage",
	models.StatusToReview: "À revoir",
	models.StatusMastered: "Maîtrisées",
}

// formatQuestion renders a question with its options
func formatQuestion(q models.Question, position, total int) string {
	var sb strings.Builder
	if total > 0 {
		fmt.Fprintf(&sb, "Question %d/%d", position, total)
	} else {
		sb.WriteString("Question")
	}
	fmt.Fprintf(&sb, " · %s\n\n%s\n", q.CategoryLabel(), q.Prompt)

	options := q.Options()
	for _, letter := range models.OptionLetters {
		if text, ok := options[letter]; ok {
			fmt.Fprintf(&sb, "\n%s. %s", letter, text)
		}
	}
	return sb.String()
}

// answerButtons returns one button per option of q
func answerButtons(q models.Question) [][]MenuButton {
	options := q.Options()
	row := make([]MenuButton, 0, len(options))
	for _, letter := range models.OptionLetters {
		if _, ok := options[letter]; ok {
			row = append(row, MenuButton{Text: letter, CallbackData: answerCallback(q.ID, letter)})
		}
	}
	return [][]MenuButton{row, {{Text: "⏹ Arrêter", CallbackData: callbackStop}}}
}

// formatFeedback tells the user whether the answer was right
func formatFeedback(res *service.AttemptResult) string {
	if res.Attempt.Correct {
		return "✅ Bonne réponse !"
	}
	return fmt.Sprintf("❌ Mauvaise réponse. La bonne réponse était %s.", res.CorrectChoice)
}

// formatExamOutcome summarizes a finished exam
func formatExamOutcome(out *service.ExamOutcome, timedOut bool) string {
	var sb strings.Builder
	if timedOut {
		sb.WriteString("⏰ Temps écoulé !\n\n")
	}
	fmt.Fprintf(&sb, "Résultat : %d/%d\n", out.Result.Correct, out.Result.Total)
	if out.Result.Passed {
		sb.WriteString("🎉 Examen réussi !")
	} else {
		sb.WriteString("Examen non réussi, continuez à vous entraîner.")
	}
	if len(out.NewAchievements) > 0 {
		sb.WriteString("\n\nNouveaux trophées :")
		for _, a := range out.NewAchievements {
			fmt.Fprintf(&sb, "\n🏆 %s : %s", a.Title, a.Description)
		}
	}
	return sb.String()
}

// formatDashboard renders the progress overview of a user
func formatDashboard(d *service.DashboardResult) string {
	var sb strings.Builder
	sb.WriteString("📊 Vos statistiques\n")
	for _, s := range models.Statuses {
		fmt.Fprintf(&sb, "\n%s : %d", statusLabels[s], d.Progress.ByStatus[s])
	}
	fmt.Fprintf(&sb, "\n\nÀ réviser maintenant : %d", d.Progress.DueNow)
	fmt.Fprintf(&sb, "\nRéponses : %d (%d correctes)", d.Stats.TotalAttempts, d.Stats.CorrectAttempts)
	fmt.Fprintf(&sb, "\nMeilleure série : %d", d.Stats.LongestStreak)
	fmt.Fprintf(&sb, "\nExamens : %d passés, %d réussis", d.Stats.ExamsTaken, d.Stats.ExamsPassed)

	unlocked := achievements.Unlocked(d.Stats)
	fmt.Fprintf(&sb, "\n\n🏆 Trophées : %d/%d", len(unlocked), len(achievements.Rules))
	for _, a := range unlocked {
		fmt.Fprintf(&sb, "\n• %s", a.Title)
	}
	return sb.String()
}

// formatOverview renders the administrator counters
func formatOverview(o *database.Overview) string {
	return fmt.Sprintf("Statistiques système\n\nQuestions : %d\nUtilisateurs : %d\nRéponses : %d\nExamens : %d (%d réussis)",
		o.Questions, o.Users, o.Attempts, o.Exams, o.ExamsPassed)
}

// reminderText is the body of a review reminder
func reminderText(count int) string {
	if count == 1 {
		return "Vous avez 1 question à réviser aujourd'hui !"
	}
	return fmt.Sprintf("Vous avez %d questions à réviser aujourd'hui !", count)
}

// boolToEnabledString converts a boolean to a human-readable enabled/disabled string
func boolToEnabledString(enabled bool) string {
	if enabled {
		return "activés"
	}
	return "désactivés"
}
