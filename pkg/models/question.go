package models

import "time"

// UncategorizedLabel is shown for questions without a category
const UncategorizedLabel = "Sans catégorie"

// OptionLetters lists the answer letters in display order
var OptionLetters = []string{"A", "B", "C", "D"}

// Question is one multiple-choice theory question of the bank
type Question struct {
	ID            int64     `json:"id" db:"id"`
	Questionnaire int       `json:"questionnaire" db:"questionnaire"`
	Category      *string   `json:"category" db:"category"`
	Astag         *string   `json:"astag" db:"astag"` // Legal reference code
	Prompt        string    `json:"prompt" db:"prompt"`
	OptionA       string    `json:"optionA" db:"option_a"`
	OptionB       string    `json:"optionB" db:"option_b"`
	OptionC       string    `json:"optionC" db:"option_c"`
	OptionD       *string   `json:"optionD" db:"option_d"`
	Correct       string    `json:"correct" db:"correct"` // Letter A-D
	Image         string    `json:"image" db:"image"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Options returns the non-empty options keyed by letter
func (q Question) Options() map[string]string {
	opts := make(map[string]string, 4)
	if q.OptionA != "" {
		opts["A"] = q.OptionA
	}
	if q.OptionB != "" {
		opts["B"] = q.OptionB
	}
	if q.OptionC != "" {
		opts["C"] = q.OptionC
	}
	if q.OptionD != nil && *q.OptionD != "" {
		opts["D"] = *q.OptionD
	}
	return opts
}

// CategoryLabel returns the category or UncategorizedLabel
func (q Question) CategoryLabel() string {
	if q.Category == nil || *q.Category == "" {
		return UncategorizedLabel
	}
	return *q.Category
}

// IsCorrect reports whether choice is the right letter
func (q Question) IsCorrect(choice string) bool {
	return choice == q.Correct
}

// Valid reports whether the question has at least three options and a
// correct letter naming one of them
func (q Question) Valid() bool {
	opts := q.Options()
	if len(opts) < 3 {
		return false
	}
	_, ok := opts[q.Correct]
	return ok
}
