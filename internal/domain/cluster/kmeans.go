// Package cluster partitions players by their normalized defensive features
// with seeded k-means.
package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/defscout/pkg/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KMeans is a k-means++ initialized Lloyd clusterer. Identical input, seed
// and parameters always produce identical labels.
type KMeans struct {
	k       int
	seed    int64
	maxIter int
	nInit   int
	tol     float64
	log     logger.Logger
}

// Result is the outcome of one fit.
type Result struct {
	Labels     []int
	Centroids  *mat.Dense
	Inertia    float64
	Iterations int
}

// New creates a KMeans with the default parameters.
func New(opts ...Option) *KMeans {
	km := &KMeans{
		k:       DefaultK,
		seed:    DefaultSeed,
		maxIter: DefaultMaxIter,
		nInit:   DefaultNInit,
		tol:     DefaultTolerance,
	}
	for _, opt := range opts {
		opt(km)
	}
	if km.log == nil {
		km.log = logger.Get().Named("cluster")
	}
	return km
}

// Fit clusters the rows of x.
func (km *KMeans) Fit(ctx context.Context, x [][]float64) (Result, error) {
	data, err := km.validate(x)
	if err != nil {
		return Result{}, err
	}
	tol := km.tol * meanVariance(data)

	rng := rand.New(rand.NewSource(km.seed)) //nolint:gosec // reproducible clustering
	var best Result
	for run := 0; run < km.nInit; run++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res := km.lloyd(ctx, data, km.initCentroids(data, rng), tol)
		km.log.Debug(ctx, "k-means run finished",
			logger.Int("run", run),
			logger.Int("iterations", res.Iterations),
			logger.Float64("inertia", res.Inertia),
		)
		if run == 0 || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

func (km *KMeans) validate(x [][]float64) (*mat.Dense, error) {
	if km.k < 1 {
		return nil, ErrInvalidK
	}
	if km.maxIter < 1 || km.nInit < 1 || km.tol < 0 {
		return nil, ErrInvalidParameters
	}
	if km.k > len(x) {
		return nil, fmt.Errorf("%w: k=%d players=%d", ErrTooManyClusters, km.k, len(x))
	}
	cols := len(x[0])
	if cols == 0 {
		return nil, ErrRaggedMatrix
	}
	data := mat.NewDense(len(x), cols, nil)
	for i, row := range x {
		if len(row) != cols {
			return nil, ErrRaggedMatrix
		}
		if floats.HasNaN(row) {
			return nil, fmt.Errorf("%w: row %d", ErrUndefinedFeature, i)
		}
		for _, v := range row {
			if math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d", ErrUndefinedFeature, i)
			}
		}
		data.SetRow(i, row)
	}
	return data, nil
}

// initCentroids picks k starting centroids with k-means++ seeding.
func (km *KMeans) initCentroids(data *mat.Dense, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(km.k, d, nil)
	chosen := make([]bool, n)

	first := rng.Intn(n)
	chosen[first] = true
	centroids.SetRow(0, data.RawRowView(first))

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = sqDist(data.RawRowView(i), centroids.RawRowView(0))
	}
	for c := 1; c < km.k; c++ {
		next := -1
		if total := floats.Sum(dist); total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, v := range dist {
				acc += v
				if v > 0 && acc >= target {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// Every remaining point coincides with a centroid.
			next = pickUnchosen(chosen, rng)
		}
		chosen[next] = true
		centroids.SetRow(c, data.RawRowView(next))
		for i := range dist {
			dist[i] = math.Min(dist[i], sqDist(data.RawRowView(i), centroids.RawRowView(c)))
		}
	}
	return centroids
}

func pickUnchosen(chosen []bool, rng *rand.Rand) int {
	free := make([]int, 0, len(chosen))
	for i, c := range chosen {
		if !c {
			free = append(free, i)
		}
	}
	return free[rng.Intn(len(free))]
}

func (km *KMeans) lloyd(ctx context.Context, data, centroids *mat.Dense, tol float64) Result {
	n, d := data.Dims()
	labels := make([]int, n)
	next := mat.NewDense(km.k, d, nil)
	iter := 0
	for iter < km.maxIter {
		if ctx.Err() != nil {
			break
		}
		iter++
		assign(data, centroids, labels)
		km.updateCentroids(data, centroids, labels, next)

		shift := 0.0
		for c := 0; c < km.k; c++ {
			shift += sqDist(centroids.RawRowView(c), next.RawRowView(c))
		}
		centroids.Copy(next)
		if shift <= tol {
			break
		}
	}
	inertia := assign(data, centroids, labels)
	return Result{Labels: labels, Centroids: centroids, Inertia: inertia, Iterations: iter}
}

// assign labels each row with its nearest centroid, lowest index on ties,
// and returns the inertia.
func assign(data, centroids *mat.Dense, labels []int) float64 {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	inertia := 0.0
	for i := 0; i < n; i++ {
		row := data.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := 0; c < k; c++ {
			if dd := sqDist(row, centroids.RawRowView(c)); dd < bestDist {
				best, bestDist = c, dd
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return inertia
}

// updateCentroids writes the cluster means into next. An empty cluster takes
// the point farthest from its current centroid.
func (km *KMeans) updateCentroids(data, centroids *mat.Dense, labels []int, next *mat.Dense) {
	n, _ := data.Dims()
	counts := make([]int, km.k)
	for _, l := range labels {
		counts[l]++
	}
	for c := 0; c < km.k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i := 0; i < n; i++ {
			if counts[labels[i]] <= 1 {
				continue
			}
			if dd := sqDist(data.RawRowView(i), centroids.RawRowView(labels[i])); dd > farDist {
				far, farDist = i, dd
			}
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c] = 1
	}

	next.Zero()
	for i, l := range labels {
		floats.Add(next.RawRowView(l), data.RawRowView(i))
	}
	for c := 0; c < km.k; c++ {
		floats.Scale(1/float64(counts[c]), next.RawRowView(c))
	}
}

func sqDist(a, b []float64) float64 {
	dd := floats.Distance(a, b, 2)
	return dd * dd
}

func meanVariance(data *mat.Dense) float64 {
	n, d := data.Dims()
	if n < 2 {
		return 0
	}
	col := make([]float64, n)
	total := 0.0
	for j := 0; j < d; j++ {
		mat.Col(col, j, data)
		total += stat.PopVariance(col, nil)
	}
	return total / float64(d)
}
