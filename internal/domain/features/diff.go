package features

import "github.com/okian/defscout/internal/domain/model"

// Differences derives the six difference features of every metric for one
// player, in model.FeatureIndex layout. Undefined baselines yield NaN.
func Differences(avg []float64, global, positional []model.Stat) []float64 {
	out := make([]float64, len(avg)*model.DiffKinds)
	for m, a := range avg {
		g, p := global[m], positional[m]
		out[model.FeatureIndex(m, model.DiffMeanGlobal)] = a - g.Mean
		out[model.FeatureIndex(m, model.DiffToMinGlobal)] = a - g.Min
		out[model.FeatureIndex(m, model.DiffToMaxGlobal)] = g.Max - a
		out[model.FeatureIndex(m, model.DiffMeanPos)] = a - p.Mean
		out[model.FeatureIndex(m, model.DiffToMinPos)] = a - p.Min
		out[model.FeatureIndex(m, model.DiffToMaxPos)] = p.Max - a
	}
	return out
}
