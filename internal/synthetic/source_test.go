package synthetic_test

import (
	"context"
	"testing"

	"github.com/okian/defscout/internal/adapters/nbastats"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/internal/synthetic"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a synthetic source", t, func() {
		s := synthetic.New(synthetic.WithPlayers(18), synthetic.WithSeed(3))

		Convey("Then the general table has one row per player tagged with the season", func() {
			g, err := s.General(ctx, "2023-24")
			So(err, ShouldBeNil)
			So(g.Rows, ShouldHaveLength, 18)
			So(g.Has(model.ColSeason), ShouldBeTrue)
			So(g.Rows[0].Str[model.ColSeason], ShouldEqual, "2023-24")
			So(g.Has("GP_RANK"), ShouldBeTrue)
		})

		Convey("And output is reproducible across instances", func() {
			a, _ := s.Tracking(ctx, "2024-25", nbastats.LessThan10Ft)
			b, _ := synthetic.New(synthetic.WithPlayers(18), synthetic.WithSeed(3)).Tracking(ctx, "2024-25", nbastats.LessThan10Ft)
			So(a.Rows[5].Num["LT_10_PCT"], ShouldEqual, b.Rows[5].Num["LT_10_PCT"])
		})

		Convey("And seasons differ", func() {
			a, _ := s.General(ctx, "2023-24")
			b, _ := s.General(ctx, "2024-25")
			So(a.Rows[0].Num["DEF_RATING"], ShouldNotEqual, b.Rows[0].Num["DEF_RATING"])
		})

		Convey("And some players fall below the playing time thresholds", func() {
			g, _ := s.General(ctx, "2023-24")
			low := 0
			for _, r := range g.Rows {
				if r.Num[model.ColGamesPlayed] <= 20 {
					low++
				}
			}
			So(low, ShouldEqual, 2)
		})

		Convey("And the tracking tables carry positions", func() {
			lt6, err := s.Tracking(ctx, "2023-24", nbastats.LessThan6Ft)
			So(err, ShouldBeNil)
			So(lt6.Rows[0].Str[model.ColPlayerPosition], ShouldNotBeEmpty)
			So(lt6.Has("PLUSMINUS"), ShouldBeTrue)
		})

		Convey("And the player index covers the population", func() {
			players, err := s.Players(ctx, "2024-25")
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 18)
		})
	})
}
