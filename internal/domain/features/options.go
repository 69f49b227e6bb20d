package features

import (
	"github.com/okian/defscout/internal/domain/scoring"
	"github.com/okian/defscout/pkg/logger"
)

// Option configures an Engineer.
type Option func(*Engineer)

// WithWindow sets how many of the most recent Years are averaged.
func WithWindow(n int) Option {
	return func(e *Engineer) {
		e.window = n
	}
}

// WithLowerIsBetter replaces the list of inverted metrics.
func WithLowerIsBetter(metrics []string) Option {
	return func(e *Engineer) {
		if metrics != nil {
			e.lowerIsBetter = append([]string(nil), metrics...)
		}
	}
}

// WithDegenerateFill sets the normalized value of zero-variance columns.
func WithDegenerateFill(v float64) Option {
	return func(e *Engineer) {
		if v >= 0 && v <= 1 {
			e.degenerateFill = v
		}
	}
}

// WithScorer replaces the composite score aggregator.
func WithScorer(s scoring.Scorer) Option {
	return func(e *Engineer) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithNames supplies canonical player names keyed by player id.
func WithNames(names map[int64]string) Option {
	return func(e *Engineer) {
		e.names = names
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engineer) {
		if l != nil {
			e.log = l
		}
	}
}
