package nbastats

import (
	"net/http"
	"time"

	"github.com/okian/defscout/internal/adapters/cache"
	"github.com/okian/defscout/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the provider base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the client-side request rate and burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.rps = rps
		}
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithBreakerThreshold sets how many consecutive failures open the breaker
// and how long it stays open.
func WithBreakerThreshold(failures uint32, open time.Duration) Option {
	return func(c *Client) {
		if failures > 0 {
			c.breakerFailures = failures
		}
		if open > 0 {
			c.breakerTimeout = open
		}
	}
}

// WithCache caches successful responses for ttl.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
