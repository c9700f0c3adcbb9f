package domain

import "math"

// ScoreResult is the output of a scoring run.
type ScoreResult struct {
	Score      int       `json:"distress_score"`
	Confidence int       `json:"confidence"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Discount   string    `json:"discount_potential"`
	Factors    []string  `json:"risk_factors"`
	Table      string    `json:"weight_table,omitempty"`
}

// DefaultConfidence is the policy a Scorer uses when none is set.
var DefaultConfidence ConfidencePolicy = LinearConfidence{Base: 70, Step: 3}

// Scorer combines a weight table, a confidence policy, and a band table. A
// nil Confidence or an empty Bands falls back to DefaultConfidence and
// DefaultBands.
type Scorer struct {
	Weights    WeightTable
	Confidence ConfidencePolicy
	Bands      BandTable
}

// NewScorer returns a Scorer with the default policy and bands.
func NewScorer(weights WeightTable) Scorer {
	return Scorer{
		Weights:    weights,
		Confidence: DefaultConfidence,
		Bands:      DefaultBands(),
	}
}

// Score is a pure function of the signal set and the scorer's tables.
func (s Scorer) Score(signals SignalSet) ScoreResult {
	var raw float64
	factors := []string{}
	for _, w := range s.Weights.weights {
		if signals.Truthy(w.Signal) {
			raw += w.Weight
			factors = append(factors, w.Label)
		}
	}

	score := 0
	if total := s.Weights.total; total > 0 {
		score = clamp(int(math.Round(100*raw/total)), 0, 100)
	}

	policy := s.Confidence
	if policy == nil {
		policy = DefaultConfidence
	}
	band := s.Bands.Lookup(score)
	return ScoreResult{
		Score:      score,
		Confidence: policy.Confidence(len(factors)),
		RiskLevel:  band.Level,
		Discount:   band.Discount,
		Factors:    factors,
		Table:      s.Weights.name,
	}
}
