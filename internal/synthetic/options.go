package synthetic

// Option configures a Source.
type Option func(*Source)

// WithPlayers sets the population size.
func WithPlayers(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.players = n
		}
	}
}

// WithSeed sets the generator seed.
func WithSeed(seed int64) Option {
	return func(s *Source) {
		s.seed = seed
	}
}
