// Package fetch retrieves the raw tables of several seasons concurrently and
// assembles them into one RawTables value.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/defscout/internal/adapters/nbastats"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	"github.com/okian/defscout/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Provider returns the raw tables of one season.
type Provider interface {
	General(ctx context.Context, season string) (model.RawTable, error)
	Tracking(ctx context.Context, season string, category nbastats.DefenseCategory) (model.RawTable, error)
	Players(ctx context.Context, season string) ([]model.PlayerIdentity, error)
}

// seasonTables holds the four tables of one season.
type seasonTables struct {
	general, lt6, lt10, three model.RawTable
}

// Pool fetches seasons with bounded concurrency. The first failing season
// cancels the others and no partial result is returned.
type Pool struct {
	provider Provider
	workers  int
	log      logger.Logger
}

// NewPool creates a Pool over provider.
func NewPool(provider Provider, opts ...Option) *Pool {
	p := &Pool{provider: provider, workers: defaultWorkers}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("fetch")
	}
	return p
}

// FetchAll fetches every season and concatenates the tables in the order of
// seasons, independent of completion order. The player index is fetched for
// the last season in the list.
func (p *Pool) FetchAll(ctx context.Context, seasons []string) (model.RawTables, error) {
	if len(seasons) == 0 {
		return model.RawTables{}, ErrNoSeasons
	}

	results := make([]seasonTables, len(seasons))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, season := range seasons {
		i, season := i, season
		g.Go(func() error {
			metrics.AddFetchInFlight(1)
			defer metrics.AddFetchInFlight(-1)

			start := time.Now()
			st, err := p.fetchSeason(gctx, season)
			if err != nil {
				p.log.Error(gctx, "season fetch failed", logger.String("season", season), logger.Error(err))
				return fmt.Errorf("%w: %s: %w", ErrSeason, season, err)
			}
			results[i] = st
			p.log.Info(gctx, "season fetched",
				logger.String("season", season),
				logger.Int("general_rows", len(st.general.Rows)),
				logger.Duration("elapsed", time.Since(start)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordError("fetch", "season")
		return model.RawTables{}, err
	}

	var generals, lt6s, lt10s, threes []model.RawTable
	for _, r := range results {
		generals = append(generals, r.general)
		lt6s = append(lt6s, r.lt6)
		lt10s = append(lt10s, r.lt10)
		threes = append(threes, r.three)
	}
	out := model.RawTables{
		General:      model.Concat("general", generals...),
		LessThan6Ft:  model.Concat("less_than_6ft", lt6s...),
		LessThan10Ft: model.Concat("less_than_10ft", lt10s...),
		ThreePoint:   model.Concat("three_point", threes...),
	}

	players, err := p.provider.Players(ctx, seasons[len(seasons)-1])
	if err != nil {
		metrics.RecordError("fetch", "players")
		return model.RawTables{}, fmt.Errorf("%w: player index: %w", ErrSeason, err)
	}
	out.Players = players
	return out, nil
}

func (p *Pool) fetchSeason(ctx context.Context, season string) (seasonTables, error) {
	var st seasonTables
	var err error
	if st.general, err = p.provider.General(ctx, season); err != nil {
		return st, err
	}
	if st.lt6, err = p.provider.Tracking(ctx, season, nbastats.LessThan6Ft); err != nil {
		return st, err
	}
	if st.lt10, err = p.provider.Tracking(ctx, season, nbastats.LessThan10Ft); err != nil {
		return st, err
	}
	if st.three, err = p.provider.Tracking(ctx, season, nbastats.ThreePointer); err != nil {
		return st, err
	}
	return st, nil
}
