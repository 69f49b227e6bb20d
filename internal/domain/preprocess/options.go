package preprocess

import (
	"github.com/okian/defscout/internal/domain/season"
	"github.com/okian/defscout/pkg/logger"
)

// Option applies a configuration option to the Preprocessor.
type Option func(*Preprocessor)

// WithGamesPlayedThreshold sets the games-played floor. Players must exceed it.
func WithGamesPlayedThreshold(gp float64) Option {
	return func(p *Preprocessor) {
		if gp > 0 {
			p.gpThreshold = gp
		}
	}
}

// WithMinutesThreshold sets the minutes-per-game floor. Players must exceed it.
func WithMinutesThreshold(minutes float64) Option {
	return func(p *Preprocessor) {
		if minutes > 0 {
			p.minThreshold = minutes
		}
	}
}

// WithSeasonRule sets the season to Year conversion rule.
func WithSeasonRule(rule season.Rule) Option {
	return func(p *Preprocessor) {
		p.rule = rule
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Preprocessor) {
		if l != nil {
			p.logger = l
		}
	}
}
