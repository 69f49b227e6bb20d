package dedupe

// Option applies a configuration option to the deduper.
type Option func(*settings)

type settings struct {
	capacity int
}

// WithCapacity pre-sizes the seen set.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}
