package selection

// Weights tunes the priority score
type Weights struct {
	NeverSeen            float64 `json:"neverSeen"`
	FailureRate          float64 `json:"failureRate"`
	TimeSinceLastAttempt float64 `json:"timeSinceLastAttempt"`
	// CategoryBalance is accepted for compatibility; the score does not use it
	CategoryBalance float64 `json:"categoryBalance"`
}

// DefaultWeights returns the stock weights
func DefaultWeights() Weights {
	return Weights{
		NeverSeen:            50,
		FailureRate:          30,
		TimeSinceLastAttempt: 20,
		CategoryBalance:      0.8,
	}
}

// WeightOverrides carries per-request weights. A nil field keeps the
// selector's weight; an explicit 0 switches the term off.
type WeightOverrides struct {
	NeverSeen            *float64 `json:"neverSeen"`
	FailureRate          *float64 `json:"failureRate"`
	TimeSinceLastAttempt *float64 `json:"timeSinceLastAttempt"`
	CategoryBalance      *float64 `json:"categoryBalance"`
}

// Apply returns base with every set field of o replaced
func (o WeightOverrides) Apply(base Weights) Weights {
	if o.NeverSeen != nil {
		base.NeverSeen = *o.NeverSeen
	}
	if o.FailureRate != nil {
		base.FailureRate = *o.FailureRate
	}
	if o.TimeSinceLastAttempt != nil {
		base.TimeSinceLastAttempt = *o.TimeSinceLastAttempt
	}
	if o.CategoryBalance != nil {
		base.CategoryBalance = *o.CategoryBalance
	}
	return base
}
