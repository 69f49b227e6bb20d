package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/defscout/internal/adapters/repository"
	service "github.com/okian/defscout/internal/app"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type scriptedRunner struct {
	mu      sync.Mutex
	results []model.ResultTable
	errs    []error
	calls   int
	block   chan struct{}
	entered chan struct{}
}

func (r *scriptedRunner) Run(context.Context) (model.ResultTable, error) {
	if r.block != nil {
		close(r.entered)
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return model.ResultTable{}, r.errs[i]
	}
	return r.results[i%len(r.results)], nil
}

func result(runID string, scores ...float64) model.ResultTable {
	ms, _ := model.NewMetricSet("STL")
	t := model.ResultTable{RunID: runID, Metrics: ms}
	for i, s := range scores {
		t.Rows = append(t.Rows, model.Assignment{
			FeatureRecord: model.FeatureRecord{
				PlayerAverage: model.PlayerAverage{PlayerID: int64(i + 1), Name: "p", Position: "G", Avg: []float64{s}},
				DefenseScore:  s,
			},
			Cluster: i % 2,
		})
	}
	t.Clusters = []model.ClusterSummary{{Label: 0, Size: (len(scores) + 1) / 2}, {Label: 1, Size: len(scores) / 2}}
	return t
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service whose second refresh fails", t, func() {
		runner := &scriptedRunner{
			results: []model.ResultTable{result("run-1", 0.2, 0.9, 0.5)},
			errs:    []error{nil, errors.New("provider down")},
		}
		store := repository.NewSnapshotStore()
		svc := service.New(runner, store, service.WithLogger(logger.Nop()))

		runID, err := svc.Refresh(ctx)
		So(err, ShouldBeNil)
		So(runID, ShouldEqual, "run-1")

		_, err = svc.Refresh(ctx)

		Convey("Then the previous snapshot is kept", func() {
			So(err, ShouldNotBeNil)
			meta, metaErr := store.Meta(ctx)
			So(metaErr, ShouldBeNil)
			So(meta.RunID, ShouldEqual, "run-1")
		})

		Convey("And the stats record the failure", func() {
			stats := svc.GetStats()
			So(stats["runs"], ShouldEqual, 2)
			So(stats["failures"], ShouldEqual, 1)
			So(stats["last_error"], ShouldEqual, "provider down")
			So(stats["players"], ShouldEqual, 3)
		})

		Convey("And reads come from the snapshot", func() {
			top, err := svc.TopN(ctx, 2)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 2)
			So(top[0].PlayerID, ShouldEqual, 2)
			So(top[0].Rank, ShouldEqual, 1)

			entry, err := svc.Rank(ctx, 1)
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 3)
			So(entry.Averages, ShouldContainKey, "STL")

			_, err = svc.Rank(ctx, 99)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("And clusters expose their members", func() {
			clusters, err := svc.Clusters(ctx)
			So(err, ShouldBeNil)
			So(clusters, ShouldHaveLength, 2)

			detail, err := svc.Cluster(ctx, 0)
			So(err, ShouldBeNil)
			So(detail.Members, ShouldHaveLength, 2)
			So(detail.Members[0].PlayerID, ShouldEqual, 3)
		})
	})

	Convey("Given a refresh that is still running", t, func() {
		runner := &scriptedRunner{results: []model.ResultTable{result("run-1", 0.5)}, block: make(chan struct{}), entered: make(chan struct{})}
		svc := service.New(runner, repository.NewSnapshotStore(), service.WithLogger(logger.Nop()))

		done := make(chan error, 1)
		go func() {
			_, err := svc.Refresh(ctx)
			done <- err
		}()
		<-runner.entered
		_, err := svc.Refresh(ctx)

		Convey("Then a concurrent refresh is rejected", func() {
			So(errors.Is(err, service.ErrRefreshInProgress), ShouldBeTrue)
			close(runner.block)
			So(<-done, ShouldBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service that refreshes on start", t, func() {
		runner := &scriptedRunner{results: []model.ResultTable{result("run-1", 0.4, 0.6)}}
		store := repository.NewSnapshotStore()
		svc := service.New(runner, store, service.WithLogger(logger.Nop()), service.WithSchedule("@every 1h"))

		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the first snapshot is published in the background", func() {
			deadline := time.Now().Add(5 * time.Second)
			for store.Count(context.Background()) == 0 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			So(store.Count(context.Background()), ShouldEqual, 2)
			So(svc.GetStats()["started"], ShouldBeTrue)
		})
	})

	Convey("Given an invalid schedule", t, func() {
		svc := service.New(&scriptedRunner{}, repository.NewSnapshotStore(),
			service.WithLogger(logger.Nop()),
			service.WithSchedule("not a schedule"),
			service.WithRefreshOnStart(false),
		)

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Trigger(t *testing.T) {
	Convey("Given a service that has not been started", t, func() {
		svc := service.New(&scriptedRunner{}, repository.NewSnapshotStore(), service.WithLogger(logger.Nop()))

		Convey("Then Trigger reports it", func() {
			So(errors.Is(svc.Trigger(), service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		runner := &scriptedRunner{results: []model.ResultTable{result("run-2", 0.3)}}
		store := repository.NewSnapshotStore()
		svc := service.New(runner, store, service.WithLogger(logger.Nop()), service.WithRefreshOnStart(false))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When a refresh is triggered", func() {
			So(svc.Trigger(), ShouldBeNil)

			Convey("Then the snapshot is published in the background", func() {
				deadline := time.Now().Add(5 * time.Second)
				for store.Count(context.Background()) == 0 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				meta, err := store.Meta(context.Background())
				So(err, ShouldBeNil)
				So(meta.RunID, ShouldEqual, "run-2")
			})
		})
	})
}
