package cache

import "time"

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces the clock used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}
