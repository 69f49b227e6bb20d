package cluster

import "github.com/okian/defscout/pkg/logger"

// Default k-means parameters.
const (
	DefaultK         = 10
	DefaultSeed      = 42
	DefaultMaxIter   = 300
	DefaultNInit     = 1
	DefaultTolerance = 1e-4
)

// Option configures a KMeans.
type Option func(*KMeans)

// WithK sets the cluster count.
func WithK(k int) Option {
	return func(km *KMeans) {
		km.k = k
	}
}

// WithSeed sets the seed of the centroid initialization.
func WithSeed(seed int64) Option {
	return func(km *KMeans) {
		km.seed = seed
	}
}

// WithMaxIter caps the Lloyd iterations of one run.
func WithMaxIter(n int) Option {
	return func(km *KMeans) {
		km.maxIter = n
	}
}

// WithNInit sets how many seeded initializations are tried. The run with
// the lowest inertia wins.
func WithNInit(n int) Option {
	return func(km *KMeans) {
		km.nInit = n
	}
}

// WithTolerance sets the convergence tolerance on centroid movement,
// relative to the mean feature variance.
func WithTolerance(tol float64) Option {
	return func(km *KMeans) {
		km.tol = tol
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(km *KMeans) {
		if l != nil {
			km.log = l
		}
	}
}
