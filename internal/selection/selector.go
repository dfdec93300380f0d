package selection

import (
	"math/rand"
	"sync"
	"time"
)

// Selector builds exams and training orders. It is safe for concurrent use.
type Selector struct {
	weights Weights
	now     func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector creates a selector with default weights w and a random
// source seeded with seed
func NewSelector(w Weights, seed int64) *Selector {
	return &Selector{
		weights: w,
		now:     time.Now,
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// WithClock replaces the wall clock
func (s *Selector) WithClock(now func() time.Time) *Selector {
	s.now = now
	return s
}

// Weights returns the default weights of the selector
func (s *Selector) Weights() Weights {
	return s.weights
}

func (s *Selector) calculator(override WeightOverrides) *Calculator {
	return &Calculator{Weights: override.Apply(s.weights), Now: s.now}
}

func (s *Selector) shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}
