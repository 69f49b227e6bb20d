package fetch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/defscout/internal/adapters/fetch"
	"github.com/okian/defscout/internal/adapters/nbastats"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeProvider struct {
	delays   map[string]time.Duration
	failing  string
	inFlight int32
	peak     int32
	mu       sync.Mutex
	canceled []string
}

func (f *fakeProvider) table(ctx context.Context, name, season string) (model.RawTable, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	if season == f.failing {
		return model.RawTable{}, errors.New("provider down")
	}
	select {
	case <-time.After(f.delays[season]):
	case <-ctx.Done():
		f.mu.Lock()
		f.canceled = append(f.canceled, season)
		f.mu.Unlock()
		return model.RawTable{}, ctx.Err()
	}
	r := model.NewRow()
	r.Str[model.ColSeason] = season
	return model.RawTable{
		Name:    name,
		Columns: []model.Column{{Name: model.ColSeason}},
		Rows:    []model.Row{r},
	}, nil
}

func (f *fakeProvider) General(ctx context.Context, season string) (model.RawTable, error) {
	return f.table(ctx, "general", season)
}

func (f *fakeProvider) Tracking(ctx context.Context, season string, c nbastats.DefenseCategory) (model.RawTable, error) {
	return f.table(ctx, string(c), season)
}

func (f *fakeProvider) Players(context.Context, string) ([]model.PlayerIdentity, error) {
	return []model.PlayerIdentity{{PlayerID: 1, Name: "A"}}, nil
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given seasons that complete out of order", t, func() {
		p := &fakeProvider{delays: map[string]time.Duration{
			"2022-23": 30 * time.Millisecond,
			"2023-24": 1 * time.Millisecond,
			"2024-25": 10 * time.Millisecond,
		}}
		pool := fetch.NewPool(p, fetch.WithWorkers(2), fetch.WithLogger(logger.Nop()))

		out, err := pool.FetchAll(ctx, []string{"2022-23", "2023-24", "2024-25"})

		Convey("Then tables follow the season list order", func() {
			So(err, ShouldBeNil)
			So(out.General.Rows, ShouldHaveLength, 3)
			So(out.General.Rows[0].Str[model.ColSeason], ShouldEqual, "2022-23")
			So(out.General.Rows[2].Str[model.ColSeason], ShouldEqual, "2024-25")
			So(out.ThreePoint.Rows, ShouldHaveLength, 3)
			So(out.Players, ShouldHaveLength, 1)
		})

		Convey("And concurrency stays within the worker bound", func() {
			So(atomic.LoadInt32(&p.peak), ShouldBeLessThanOrEqualTo, 2)
		})
	})

	Convey("Given one failing season", t, func() {
		p := &fakeProvider{
			failing: "2023-24",
			delays:  map[string]time.Duration{"2024-25": 5 * time.Second},
		}
		pool := fetch.NewPool(p, fetch.WithWorkers(2), fetch.WithLogger(logger.Nop()))

		start := time.Now()
		out, err := pool.FetchAll(ctx, []string{"2024-25", "2023-24"})

		Convey("Then the other season is canceled and nothing is returned", func() {
			So(errors.Is(err, fetch.ErrSeason), ShouldBeTrue)
			So(errors.Is(err, model.ErrExternalFetch), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			So(out.General.Rows, ShouldBeEmpty)
			So(p.canceled, ShouldContain, "2024-25")
		})
	})

	Convey("Given an empty season list", t, func() {
		_, err := fetch.NewPool(&fakeProvider{}, fetch.WithLogger(logger.Nop())).FetchAll(ctx, nil)

		Convey("Then it is a configuration error", func() {
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})
	})
}
