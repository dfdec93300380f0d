package selection

import (
	"math"
	"sort"

	"github.com/example/codequiz/pkg/models"
)

// DefaultAvoidRecentN is the number of latest attempts whose questions an
// exam avoids
const DefaultAvoidRecentN = 40

const (
	notSeenShare = 0.4
	reviewShare  = 0.4
	weakAccuracy = 0.6
)

// ExamParams describes one exam request over a snapshot of one user scope
type ExamParams struct {
	Questions []models.Question
	Attempts  []models.Attempt
	Progress  map[int64]models.QuestionProgress
	Count     int
	Filters   Filters
	Weights   WeightOverrides
	// AvoidRecentN nil means DefaultAvoidRecentN, 0 disables avoidance
	AvoidRecentN *int
}

// BucketSizes reports how many eligible questions fell in each bucket
type BucketSizes struct {
	NotSeen  int `json:"notSeen"`
	ToReview int `json:"toReview"`
	Weak     int `json:"weak"`
}

// ExamMetadata describes how an exam was assembled
type ExamMetadata struct {
	TotalSelected        int            `json:"totalSelected"`
	Requested            int            `json:"requested"`
	Shortfall            int            `json:"shortfall"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	Buckets              BucketSizes    `json:"buckets"`
	AvoidedRecent        int            `json:"avoidedRecent"`
	OrphanAttempts       int            `json:"-"`
}

// ExamResult is an assembled exam
type ExamResult struct {
	Questions []models.Question `json:"questions"`
	Metadata  ExamMetadata      `json:"metadata"`
}

// SelectExam assembles an exam of at most p.Count questions. Never-seen,
// due and weak questions are sampled at random in 40/40/20 proportions;
// any shortfall is filled with the best scored remaining questions.
func (s *Selector) SelectExam(p ExamParams) (ExamResult, error) {
	if p.Count <= 0 {
		return ExamResult{}, &ValidationError{Field: "count", Message: "must be greater than zero"}
	}

	avoidN := DefaultAvoidRecentN
	if p.AvoidRecentN != nil {
		avoidN = *p.AvoidRecentN
	}
	if avoidN < 0 {
		return ExamResult{}, &ValidationError{Field: "avoidRecentN", Message: "must not be negative"}
	}

	recent := RecentQuestionIDs(p.Attempts, avoidN)
	pool := p.Filters.Apply(p.Questions, p.Progress)

	eligible := make([]models.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := recent[q.ID]; ok {
			continue
		}
		eligible = append(eligible, q)
	}

	now := s.now()
	var notSeen, due, weak []models.Question
	for _, q := range eligible {
		prog, ok := p.Progress[q.ID]
		if !ok {
			notSeen = append(notSeen, q)
			continue
		}
		if prog.IsDue(now) {
			due = append(due, q)
		}
		if prog.Accuracy < weakAccuracy || prog.ConsecutiveCorrect < 1 {
			weak = append(weak, q)
		}
	}

	notSeenTarget := int(math.Round(float64(p.Count) * notSeenShare))
	reviewTarget := int(math.Round(float64(p.Count) * reviewShare))
	weakTarget := p.Count - notSeenTarget - reviewTarget

	picked := make(map[int64]struct{}, p.Count)
	var selected []models.Question
	selected = append(selected, s.sample(notSeen, notSeenTarget, picked)...)
	selected = append(selected, s.sample(due, reviewTarget, picked)...)
	selected = append(selected, s.sample(weak, weakTarget, picked)...)
	selected = dedup(selected)

	var orphans int
	if len(selected) < p.Count {
		rest := make([]models.Question, 0, len(eligible))
		for _, q := range eligible {
			if _, ok := picked[q.ID]; !ok {
				rest = append(rest, q)
			}
		}
		var byQuestion map[int64][]models.Attempt
		byQuestion, orphans = GroupAttempts(p.Questions, p.Attempts)
		scored := s.calculator(p.Weights).ScoreAll(rest, byQuestion)
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
		for _, sq := range scored {
			if len(selected) >= p.Count {
				break
			}
			selected = append(selected, sq.Question)
		}
	}

	if len(selected) > p.Count {
		selected = selected[:p.Count]
	}

	meta := ExamMetadata{
		TotalSelected:        len(selected),
		Requested:            p.Count,
		CategoryDistribution: CategoryDistribution(selected),
		Buckets:              BucketSizes{NotSeen: len(notSeen), ToReview: len(due), Weak: len(weak)},
		AvoidedRecent:        len(pool) - len(eligible),
		OrphanAttempts:       orphans,
	}
	if meta.TotalSelected < p.Count {
		meta.Shortfall = p.Count - meta.TotalSelected
	}

	return ExamResult{Questions: selected, Metadata: meta}, nil
}

// sample picks up to n random questions of bucket that are not yet in
// picked, and records them in picked
func (s *Selector) sample(bucket []models.Question, n int, picked map[int64]struct{}) []models.Question {
	if n <= 0 {
		return nil
	}
	candidates := make([]models.Question, 0, len(bucket))
	for _, q := range bucket {
		if _, ok := picked[q.ID]; !ok {
			candidates = append(candidates, q)
		}
	}
	s.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	for _, q := range candidates {
		picked[q.ID] = struct{}{}
	}
	return candidates
}

// dedup keeps the first occurrence of every question id
func dedup(questions []models.Question) []models.Question {
	seen := make(map[int64]struct{}, len(questions))
	out := questions[:0]
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// RecentQuestionIDs returns the question ids of the n most recent attempts
func RecentQuestionIDs(attempts []models.Attempt, n int) map[int64]struct{} {
	ids := make(map[int64]struct{})
	if n <= 0 || len(attempts) == 0 {
		return ids
	}
	sorted := make([]models.Attempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	for _, a := range sorted {
		ids[a.QuestionID] = struct{}{}
	}
	return ids
}

// CategoryDistribution counts questions per category label
func CategoryDistribution(questions []models.Question) map[string]int {
	dist := make(map[string]int)
	for _, q := range questions {
		dist[q.CategoryLabel()]++
	}
	return dist
}
