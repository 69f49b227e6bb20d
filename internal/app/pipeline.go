// Package service runs the defensive clustering pipeline and serves its
// latest result.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/defscout/internal/adapters/sink"
	"github.com/okian/defscout/internal/domain/cluster"
	"github.com/okian/defscout/internal/domain/features"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/internal/domain/preprocess"
	"github.com/okian/defscout/pkg/logger"
	"github.com/okian/defscout/pkg/metrics"
)

// Stage names used in logs and metrics.
const (
	StageFetch      = "fetch"
	StagePreprocess = "preprocess"
	StageMetrics    = "metrics"
	StageEngineer   = "engineer"
	StageCluster    = "cluster"
	StagePersist    = "persist"
)

// Fetcher returns the raw tables of the requested seasons.
type Fetcher interface {
	FetchAll(ctx context.Context, seasons []string) (model.RawTables, error)
}

// Preprocessor merges and filters the raw tables.
type Preprocessor interface {
	Preprocess(ctx context.Context, raw model.RawTables) (model.SeasonTable, error)
}

// Clusterer labels engineered players.
type Clusterer interface {
	Assign(ctx context.Context, ft model.FeatureTable) ([]model.Assignment, []model.ClusterSummary, cluster.Result, error)
}

// Pipeline runs fetch, preprocess, engineer, cluster and persist in order.
// Any stage failure aborts the run before the sink is written.
type Pipeline struct {
	seasons      []string
	fetcher      Fetcher
	preprocessor Preprocessor
	excluded     []string
	engineerOpts []features.Option
	clusterer    Clusterer
	sink         sink.Sink
	newRunID     func() string
	log          logger.Logger
}

// NewPipeline creates a Pipeline reading from fetcher and writing to out.
func NewPipeline(fetcher Fetcher, out sink.Sink, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		sink:     out,
		excluded: features.DefaultExcludedColumns,
		newRunID: newRunID,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("pipeline")
	}
	if p.preprocessor == nil {
		p.preprocessor = preprocess.New(preprocess.WithLogger(p.log.Named("preprocess")))
	}
	if p.clusterer == nil {
		p.clusterer = cluster.New(cluster.WithLogger(p.log.Named("cluster")))
	}
	return p
}

// Run executes one full pipeline run and returns the persisted table.
func (p *Pipeline) Run(ctx context.Context) (model.ResultTable, error) {
	runID := p.newRunID()
	ctx = logger.WithRunID(ctx, runID)
	start := time.Now()
	p.log.Info(ctx, "pipeline run started", logger.Int("seasons", len(p.seasons)))

	table, err := p.run(ctx, runID)
	if err != nil {
		metrics.RecordPipelineRun("failure")
		p.log.Error(ctx, "pipeline run failed", logger.Duration("elapsed", time.Since(start)), logger.Error(err))
		return model.ResultTable{}, err
	}

	metrics.RecordPipelineRun("success")
	metrics.UpdateLastSuccess(time.Now().Unix())
	p.log.Info(ctx, "pipeline run finished",
		logger.Int("players", len(table.Rows)),
		logger.Int("clusters", len(table.Clusters)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return table, nil
}

func (p *Pipeline) run(ctx context.Context, runID string) (model.ResultTable, error) {
	var raw model.RawTables
	err := p.stage(ctx, StageFetch, func() (int, error) {
		var err error
		raw, err = p.fetcher.FetchAll(ctx, p.seasons)
		return len(raw.General.Rows), err
	})
	if err != nil {
		return model.ResultTable{}, err
	}

	var seasons model.SeasonTable
	err = p.stage(ctx, StagePreprocess, func() (int, error) {
		var err error
		seasons, err = p.preprocessor.Preprocess(ctx, raw)
		return len(seasons.Rows), err
	})
	if err != nil {
		return model.ResultTable{}, err
	}

	var ms model.MetricSet
	err = p.stage(ctx, StageMetrics, func() (int, error) {
		var err error
		ms, err = features.DiscoverMetrics(seasons, p.excluded)
		return ms.Len(), err
	})
	if err != nil {
		return model.ResultTable{}, err
	}
	metrics.UpdateMetricCount(ms.Len())

	var ft model.FeatureTable
	err = p.stage(ctx, StageEngineer, func() (int, error) {
		opts := append([]features.Option{features.WithLogger(p.log.Named("engineer"))}, p.engineerOpts...)
		opts = append(opts, features.WithNames(raw.PlayerNames()))
		var err error
		ft, err = features.New(opts...).Engineer(ctx, seasons, ms)
		return len(ft.Records), err
	})
	if err != nil {
		return model.ResultTable{}, err
	}
	metrics.UpdatePlayersEngineered(len(ft.Records))

	table := model.ResultTable{RunID: runID, Metrics: ms}
	err = p.stage(ctx, StageCluster, func() (int, error) {
		rows, summaries, res, err := p.clusterer.Assign(ctx, ft)
		if err != nil {
			return 0, err
		}
		table.Rows, table.Clusters = rows, summaries
		sizes := make([]int, len(summaries))
		for i, s := range summaries {
			sizes[i] = s.Size
		}
		metrics.UpdateClusterSizes(sizes)
		metrics.UpdateKMeans(res.Iterations, res.Inertia)
		return len(rows), nil
	})
	if err != nil {
		return model.ResultTable{}, err
	}

	err = p.stage(ctx, StagePersist, func() (int, error) {
		err := p.sink.Write(ctx, table)
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.RecordSinkWrite(p.sink.Kind(), status)
		return len(table.Rows), err
	})
	if err != nil {
		return model.ResultTable{}, err
	}
	return table, nil
}

// stage logs entry and exit of fn and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() (int, error)) error {
	start := time.Now()
	p.log.Info(ctx, "stage started", logger.String("stage", name))

	rows, err := fn()
	elapsed := time.Since(start)
	metrics.RecordStageDuration(name, elapsed.Seconds())
	if err != nil {
		metrics.RecordError("pipeline", name)
		p.log.Error(ctx, "stage failed", logger.String("stage", name), logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	p.log.Info(ctx, "stage finished",
		logger.String("stage", name),
		logger.Int("rows", rows),
		logger.Duration("elapsed", elapsed),
	)
	return nil
}
