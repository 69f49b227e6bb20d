package types_test

import (
	"encoding/json"
	"math"
	"testing"

	types "github.com/okian/defscout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFloat(t *testing.T) {
	Convey("Given floats with undefined values", t, func() {
		Convey("When encoding NaN and infinities", func() {
			b, err := json.Marshal([]types.Float{1.5, types.Float(math.NaN()), types.Float(math.Inf(-1)), 0})

			Convey("Then they become null", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "[1.5,null,null,0]")
			})
		})

		Convey("When converting a slice", func() {
			out := types.Floats([]float64{0.25, 1})

			Convey("Then values are kept in order", func() {
				So(out, ShouldResemble, []types.Float{0.25, 1})
			})
		})
	})
}

func TestEntry(t *testing.T) {
	Convey("Given an entry with an undefined score", t, func() {
		entry := types.Entry{
			Rank:         3,
			PlayerID:     1630001,
			Name:         "Evan Mobley",
			Position:     "F-C",
			DefenseScore: types.Float(math.NaN()),
			Cluster:      2,
		}

		Convey("When encoding it", func() {
			var decoded map[string]any
			b, err := json.Marshal(entry)
			So(err, ShouldBeNil)
			So(json.Unmarshal(b, &decoded), ShouldBeNil)

			Convey("Then the score is null and empty averages are omitted", func() {
				So(decoded["defense_score"], ShouldBeNil)
				So(decoded["player_id"], ShouldEqual, 1630001)
				_, ok := decoded["averages"]
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a cluster detail", t, func() {
		detail := types.ClusterDetail{
			Cluster: types.Cluster{Label: 1, Size: 1, MeanScore: 0.5, Centroid: types.Floats([]float64{0.1})},
			Members: []types.Entry{{Rank: 1, PlayerID: 9}},
		}

		Convey("Then the embedded cluster fields are flattened", func() {
			b, err := json.Marshal(detail)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"label":1`)
			So(string(b), ShouldContainSubstring, `"members":[`)
		})
	})
}
