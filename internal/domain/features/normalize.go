package features

import (
	"math"

	"github.com/okian/defscout/internal/domain/model"
	"gonum.org/v1/gonum/mat"
)

// DefaultDegenerateFill is the normalized value of a zero-variance column.
// It sits in the middle of [0,1] so polarity inversion leaves it unchanged.
const DefaultDegenerateFill = 0.5

// Normalizer min-max scales every difference column over the current player
// population and then inverts the columns of lower-is-better metrics.
type Normalizer struct {
	lowerIsBetter  map[string]struct{}
	degenerateFill float64
}

// NewNormalizer creates a Normalizer. Membership in lowerIsBetter is by exact
// metric name.
func NewNormalizer(lowerIsBetter []string, degenerateFill float64) Normalizer {
	set := make(map[string]struct{}, len(lowerIsBetter))
	for _, m := range lowerIsBetter {
		set[m] = struct{}{}
	}
	return Normalizer{lowerIsBetter: set, degenerateFill: degenerateFill}
}

// Inverted reports whether metric is inverted after scaling.
func (n Normalizer) Inverted(metric string) bool {
	_, ok := n.lowerIsBetter[metric]
	return ok
}

// Normalize returns the normalized matrix for diffs, one row per player in
// model.FeatureIndex layout. NaN inputs stay NaN and do not take part in a
// column's min or max. The input is not modified.
func (n Normalizer) Normalize(diffs [][]float64, metrics model.MetricSet) [][]float64 {
	rows := len(diffs)
	cols := metrics.Len() * model.DiffKinds
	out := make([][]float64, rows)
	if rows == 0 {
		return out
	}
	raw := mat.NewDense(rows, cols, nil)
	for i, d := range diffs {
		raw.SetRow(i, d)
	}

	scaled := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, raw)
		scaleColumn(col, n.degenerateFill)
		if n.Inverted(metrics.At(j / model.DiffKinds)) {
			for i, v := range col {
				if !math.IsNaN(v) {
					col[i] = 1 - v
				}
			}
		}
		scaled.SetCol(j, col)
	}

	for i := range out {
		out[i] = mat.Row(nil, i, scaled)
	}
	return out
}

// scaleColumn applies (x - min) / (max - min) in place.
func scaleColumn(col []float64, fill float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return
	}
	span := hi - lo
	for i, v := range col {
		switch {
		case math.IsNaN(v):
		case span == 0:
			col[i] = fill
		default:
			col[i] = (v - lo) / span
		}
	}
}
