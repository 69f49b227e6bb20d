package sink_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/defscout/internal/adapters/sink"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func resultTable(runID string) model.ResultTable {
	ms, _ := model.NewMetricSet("STL")
	rec := func(id int64, name string, score float64, label int) model.Assignment {
		return model.Assignment{
			FeatureRecord: model.FeatureRecord{
				PlayerAverage: model.PlayerAverage{PlayerID: id, Name: name, Position: "G", Avg: []float64{1.5}},
				Positional:    []model.Stat{{Mean: 1, Min: 0.5, Max: 2}},
				Diffs:         []float64{0.1, 0.2, 0.3, 0.4, 0.5, math.NaN()},
				Norms:         []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
				DefenseScore:  score,
			},
			Cluster: label,
		}
	}
	return model.ResultTable{
		RunID:   runID,
		Metrics: ms,
		Rows:    []model.Assignment{rec(1, "A", 0.5, 0), rec(2, "B", 0.7, 1)},
		Clusters: []model.ClusterSummary{
			{Label: 0, Size: 1, MeanScore: 0.5},
			{Label: 1, Size: 1, MeanScore: 0.7},
		},
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	Convey("Given output settings", t, func() {
		dir := t.TempDir()

		Convey("Then the extension selects the sink", func() {
			x, err := sink.Open(ctx, filepath.Join(dir, "out.xlsx"), "", logger.Nop())
			So(err, ShouldBeNil)
			So(x.Kind(), ShouldEqual, "xlsx")

			s, err := sink.Open(ctx, filepath.Join(dir, "out.db"), "", logger.Nop())
			So(err, ShouldBeNil)
			So(s.Kind(), ShouldEqual, "sqlite")
			So(s.Close(), ShouldBeNil)
		})

		Convey("And unknown extensions are configuration errors", func() {
			_, err := sink.Open(ctx, filepath.Join(dir, "out.csv"), "", logger.Nop())
			So(errors.Is(err, sink.ErrUnsupportedOutput), ShouldBeTrue)
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestExcel(t *testing.T) {
	ctx := context.Background()

	Convey("Given an Excel sink", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "defensive_clusters.xlsx")
		x := sink.NewExcel(path, logger.Nop())

		err := x.Write(ctx, resultTable("run-1"))

		Convey("Then the workbook holds header, rows and summaries", func() {
			So(err, ShouldBeNil)
			f, err := excelize.OpenFile(path)
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()

			rows, err := f.GetRows(sink.ResultsTable)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
			So(rows[0][0], ShouldEqual, "RUN_ID")
			So(rows[1][0], ShouldEqual, "run-1")
			So(rows[2][2], ShouldEqual, "B")

			summaries, err := f.GetRows(sink.ClustersTable)
			So(err, ShouldBeNil)
			So(summaries, ShouldHaveLength, 3)
		})

		Convey("And a canceled write keeps the previous file", func() {
			before, _ := os.ReadFile(path)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			So(x.Write(cctx, resultTable("run-2")), ShouldNotBeNil)
			after, _ := os.ReadFile(path)
			So(after, ShouldResemble, before)

			entries, _ := os.ReadDir(filepath.Dir(path))
			So(entries, ShouldHaveLength, 1)
		})
	})
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()

	Convey("Given a SQLite sink that is never written", t, func() {
		path := filepath.Join(t.TempDir(), "out.db")
		s, err := sink.NewSQLite(ctx, path, logger.Nop())
		So(err, ShouldBeNil)

		So(s.Close(), ShouldBeNil)

		Convey("Then no database file is created", func() {
			_, err := os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)
			So(s.DB(), ShouldBeNil)
		})
	})

	Convey("Given a SQLite sink", t, func() {
		s, err := sink.NewSQLite(ctx, filepath.Join(t.TempDir(), "out.db"), logger.Nop())
		So(err, ShouldBeNil)
		defer func() { _ = s.Close() }()

		So(s.Write(ctx, resultTable("run-1")), ShouldBeNil)

		Convey("Then rows round-trip and NaN becomes NULL", func() {
			var n int
			So(s.DB().GetContext(ctx, &n, `SELECT COUNT(*) FROM "defensive_clusters"`), ShouldBeNil)
			So(n, ShouldEqual, 2)

			var score float64
			So(s.DB().GetContext(ctx, &score, `SELECT "defense_score" FROM "defensive_clusters" WHERE "PLAYER_ID" = 2`), ShouldBeNil)
			So(score, ShouldAlmostEqual, 0.7)

			var nulls int
			So(s.DB().GetContext(ctx, &nulls, `SELECT COUNT(*) FROM "defensive_clusters" WHERE "diff_to_max_pos_STL" IS NULL`), ShouldBeNil)
			So(nulls, ShouldEqual, 2)
		})

		Convey("And a rerun replaces the table", func() {
			So(s.Write(ctx, resultTable("run-2")), ShouldBeNil)
			var runs []string
			So(s.DB().SelectContext(ctx, &runs, `SELECT DISTINCT "RUN_ID" FROM "defensive_clusters"`), ShouldBeNil)
			So(runs, ShouldResemble, []string{"run-2"})
		})

		Convey("And a failed write keeps the previous table", func() {
			broken := resultTable("run-3")
			broken.Rows[1].Avg = append(broken.Rows[1].Avg, 9)

			So(errors.Is(s.Write(ctx, broken), sink.ErrWrite), ShouldBeTrue)
			var runs []string
			So(s.DB().SelectContext(ctx, &runs, `SELECT DISTINCT "RUN_ID" FROM "defensive_clusters"`), ShouldBeNil)
			So(runs, ShouldResemble, []string{"run-1"})
		})
	})
}
