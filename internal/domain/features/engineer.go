package features

import (
	"context"
	"math"

	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/internal/domain/scoring"
	"github.com/okian/defscout/pkg/logger"
)

// Engineer turns the preprocessed season table into one FeatureRecord per
// player.
type Engineer struct {
	window         int
	lowerIsBetter  []string
	degenerateFill float64
	scorer         scoring.Scorer
	names          map[int64]string
	log            logger.Logger
}

// New creates an Engineer with the default window, polarity list and fill.
func New(opts ...Option) *Engineer {
	e := &Engineer{
		window:         DefaultWindow,
		lowerIsBetter:  DefaultLowerIsBetter,
		degenerateFill: DefaultDegenerateFill,
		scorer:         scoring.NewMeanScorer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("engineer")
	}
	return e
}

// Engineer computes averages, baselines, differences, normalized
// differences and the defense score for every player in t.
func (e *Engineer) Engineer(ctx context.Context, t model.SeasonTable, metrics model.MetricSet) (model.FeatureTable, error) {
	avgs, err := Averages(t, metrics, e.window)
	if err != nil {
		return model.FeatureTable{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.FeatureTable{}, err
	}

	base := ComputeBaseline(avgs, metrics)

	records := make([]model.FeatureRecord, len(avgs))
	diffs := make([][]float64, len(avgs))
	for i, a := range avgs {
		if name, ok := e.names[a.PlayerID]; ok && name != "" {
			a.Name = name
		}
		pos := base.ForPosition(a.Position)
		records[i] = model.FeatureRecord{
			PlayerAverage: a,
			Positional:    pos,
			Diffs:         Differences(a.Avg, base.Global, pos),
		}
		diffs[i] = records[i].Diffs
	}

	norm := NewNormalizer(e.lowerIsBetter, e.degenerateFill)
	norms := norm.Normalize(diffs, metrics)
	undefined := 0
	for i := range records {
		records[i].Norms = norms[i]
		records[i].DefenseScore = e.scorer.Score(norms[i])
		if math.IsNaN(records[i].DefenseScore) {
			undefined++
		}
	}

	e.log.Info(ctx, "features engineered",
		logger.Int("players", len(records)),
		logger.Int("metrics", metrics.Len()),
		logger.Int("positions", len(base.Positional)),
		logger.Int("undefined_scores", undefined),
	)
	return model.FeatureTable{Metrics: metrics, Records: records}, nil
}
