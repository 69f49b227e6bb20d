package cluster

import (
	"context"
	"math"

	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	"gonum.org/v1/gonum/mat"
)

// Assign clusters the normalized features of ft and returns one Assignment
// per record, in record order, together with per-cluster summaries. The
// defense score is not part of the clustering input.
func (km *KMeans) Assign(ctx context.Context, ft model.FeatureTable) ([]model.Assignment, []model.ClusterSummary, Result, error) {
	x := make([][]float64, len(ft.Records))
	for i, r := range ft.Records {
		x[i] = r.Norms
	}
	res, err := km.Fit(ctx, x)
	if err != nil {
		return nil, nil, Result{}, err
	}

	out := make([]model.Assignment, len(ft.Records))
	for i, r := range ft.Records {
		out[i] = model.Assignment{FeatureRecord: r, Cluster: res.Labels[i]}
	}
	summaries := Summarize(out, res.Centroids)

	km.log.Info(ctx, "players clustered",
		logger.Int("players", len(out)),
		logger.Int("clusters", km.k),
		logger.Int("iterations", res.Iterations),
		logger.Float64("inertia", res.Inertia),
	)
	for _, s := range summaries {
		km.log.Debug(ctx, "cluster summary",
			logger.Int("label", s.Label),
			logger.Int("size", s.Size),
			logger.Float64("mean_score", s.MeanScore),
		)
	}
	return out, summaries, res, nil
}

// Summarize reports size, mean defense score and centroid of every cluster.
func Summarize(rows []model.Assignment, centroids *mat.Dense) []model.ClusterSummary {
	k, _ := centroids.Dims()
	out := make([]model.ClusterSummary, k)
	sums := make([]float64, k)
	scored := make([]int, k)
	for c := range out {
		out[c] = model.ClusterSummary{
			Label:    c,
			Centroid: mat.Row(nil, c, centroids),
		}
	}
	for _, r := range rows {
		out[r.Cluster].Size++
		if !math.IsNaN(r.DefenseScore) {
			sums[r.Cluster] += r.DefenseScore
			scored[r.Cluster]++
		}
	}
	for c := range out {
		out[c].MeanScore = math.NaN()
		if scored[c] > 0 {
			out[c].MeanScore = sums[c] / float64(scored[c])
		}
	}
	return out
}
