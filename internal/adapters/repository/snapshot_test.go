package repository_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/defscout/internal/adapters/repository"
	"github.com/okian/defscout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(id int64, score float64, label int) model.Assignment {
	return model.Assignment{
		FeatureRecord: model.FeatureRecord{
			PlayerAverage: model.PlayerAverage{PlayerID: id, Name: "p", Position: "G", Avg: []float64{float64(id)}},
			DefenseScore:  score,
		},
		Cluster: label,
	}
}

func table(runID string, rows ...model.Assignment) model.ResultTable {
	ms, _ := model.NewMetricSet("STL")
	return model.ResultTable{
		RunID:   runID,
		Metrics: ms,
		Rows:    rows,
		Clusters: []model.ClusterSummary{
			{Label: 0, Size: 2, MeanScore: 0.6},
			{Label: 1, Size: 2, MeanScore: 0.5},
		},
	}
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	Convey("Given an empty store", t, func() {
		s := repository.NewSnapshotStore(repository.WithClock(func() time.Time { return at }))

		Convey("Then queries report that nothing is published", func() {
			_, err := s.TopN(ctx, 3)
			So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			_, err = s.Meta(ctx)
			So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			So(s.Count(ctx), ShouldEqual, 0)
		})

		Convey("When a run is published", func() {
			So(s.Publish(ctx, table("run-1",
				row(4, 0.5, 1),
				row(2, 0.7, 0),
				row(3, 0.5, 1),
				row(1, 0.5, 0),
			)), ShouldBeNil)

			Convey("Then rank 1 is the highest score and ties break by player id", func() {
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 4)
				ids := []int64{top[0].PlayerID, top[1].PlayerID, top[2].PlayerID, top[3].PlayerID}
				So(ids, ShouldResemble, []int64{2, 1, 3, 4})
				So(top[0].Rank, ShouldEqual, 1)
				So(top[3].Rank, ShouldEqual, 4)
			})

			Convey("And single players can be looked up", func() {
				e, err := s.Rank(ctx, 3)
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 3)
				So(e.Averages["STL"], ShouldEqual, 3)

				_, err = s.Rank(ctx, 99)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And cluster members come in rank order", func() {
				sum, members, err := s.Members(ctx, 1)
				So(err, ShouldBeNil)
				So(sum.Label, ShouldEqual, 1)
				So(members, ShouldHaveLength, 2)
				So(members[0].PlayerID, ShouldEqual, 3)

				_, _, err = s.Members(ctx, 5)
				So(errors.Is(err, repository.ErrUnknownCluster), ShouldBeTrue)
			})

			Convey("And meta describes the run", func() {
				m, err := s.Meta(ctx)
				So(err, ShouldBeNil)
				So(m.RunID, ShouldEqual, "run-1")
				So(m.PublishedAt, ShouldEqual, at)
				So(m.Players, ShouldEqual, 4)
				So(m.Metrics, ShouldResemble, []string{"STL"})
			})

			Convey("And invalid limits are rejected", func() {
				_, err := s.TopN(ctx, 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("And a new publish replaces the snapshot", func() {
				So(s.Publish(ctx, table("run-2", row(9, 0.1, 0))), ShouldBeNil)
				So(s.Count(ctx), ShouldEqual, 1)
				_, err := s.Rank(ctx, 2)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a run contains an undefined score", func() {
			So(s.Publish(ctx, table("run-3", row(1, math.NaN(), 0), row(2, 0.1, 1))), ShouldBeNil)

			Convey("Then it ranks last", func() {
				e, err := s.Rank(ctx, 1)
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
			})
		})
	})
}
