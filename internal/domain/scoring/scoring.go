// Package scoring defines the contract for collapsing a player's normalized
// features into one defensive score.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scorer computes a composite score from normalized features.
type Scorer interface {
	// Score returns the composite or NaN when no feature is defined.
	Score(norms []float64) float64
}

// Option applies a configuration option to the MeanScorer.
type Option func(*MeanScorer)

// WithWeights sets per-feature weights aligned with the feature layout.
// A nil or mismatched slice falls back to equal weights.
func WithWeights(weights []float64) Option {
	return func(s *MeanScorer) {
		s.weights = append([]float64(nil), weights...)
	}
}

// MeanScorer averages the defined features of a record.
type MeanScorer struct {
	weights []float64
}

// NewMeanScorer creates a scorer with equal weights by default.
func NewMeanScorer(opts ...Option) *MeanScorer {
	s := &MeanScorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer. NaN features are skipped.
func (s *MeanScorer) Score(norms []float64) float64 {
	vals := make([]float64, 0, len(norms))
	var weights []float64
	useWeights := len(s.weights) == len(norms)
	for i, v := range norms {
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
		if useWeights {
			weights = append(weights, s.weights[i])
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, weights)
}
