package selection

import (
	"strconv"
	"strings"

	"github.com/example/codequiz/pkg/models"
)

// FilterAll disables a filter, as does the empty string
const FilterAll = "all"

// Filters restricts the question pool
type Filters struct {
	Questionnaire string `json:"questionnaire"`
	Category      string `json:"categorie"`
	Astag         string `json:"astag"`
	Status        string `json:"statut"`
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, FilterAll)
}

// Match reports whether q passes every active filter. progress is only
// consulted by the status filter; a question without progress is not_seen.
func (f Filters) Match(q models.Question, progress map[int64]models.QuestionProgress) bool {
	if active(f.Questionnaire) && strings.TrimSpace(f.Questionnaire) != strconv.Itoa(q.Questionnaire) {
		return false
	}
	if active(f.Category) && (q.Category == nil || *q.Category != f.Category) {
		return false
	}
	if active(f.Astag) && (q.Astag == nil || *q.Astag != f.Astag) {
		return false
	}
	if active(f.Status) {
		status := models.StatusNotSeen
		if p, ok := progress[q.ID]; ok && p.Status != "" {
			status = p.Status
		}
		if string(status) != f.Status {
			return false
		}
	}
	return true
}

// Apply returns the questions passing the filters, in input order
func (f Filters) Apply(questions []models.Question, progress map[int64]models.QuestionProgress) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if f.Match(q, progress) {
			out = append(out, q)
		}
	}
	return out
}
