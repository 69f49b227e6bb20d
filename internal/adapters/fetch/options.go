package fetch

import "github.com/okian/defscout/pkg/logger"

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers bounds how many seasons are fetched concurrently.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}
