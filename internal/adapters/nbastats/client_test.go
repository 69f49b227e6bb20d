package nbastats_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/defscout/internal/adapters/cache"
	"github.com/okian/defscout/internal/adapters/nbastats"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	"github.com/sony/gobreaker"
	. "github.com/smartystreets/goconvey/convey"
)

const generalBody = `{"resource":"leaguedashplayerstats","resultSets":[{"name":"LeagueDashPlayerStats",
"headers":["PLAYER_ID","PLAYER_NAME","TEAM_ABBREVIATION","GP","MIN","DEF_RATING","STL"],
"rowSet":[[201939,"Stephen Curry","GSW",70,32.7,114.2,0.9],[1628983,"Shai Gilgeous-Alexander","OKC",75,34.0,null,2.0]]}]}`

const ptDefendBody = `{"resultSets":[{"name":"LeagueDashPtDefend",
"headers":["CLOSE_DEF_PERSON_ID","PLAYER_NAME","PLAYER_POSITION","FREQ","FGM_LT_06","FGA_LT_06","LT_06_PCT"],
"rowSet":[[201939,"Stephen Curry","G","0.1",1.2,2.4,0.5]]}]}`

const playersBody = `{"resultSets":[{"headers":["PERSON_ID","DISPLAY_LAST_FIRST","DISPLAY_FIRST_LAST"],
"rowSet":[[201939,"Curry, Stephen","Stephen Curry"],[null,"x","ghost"]]}]}`

func newClient(url string, opts ...nbastats.Option) *nbastats.Client {
	base := []nbastats.Option{
		nbastats.WithBaseURL(url),
		nbastats.WithRateLimit(1000, 10),
		nbastats.WithLogger(logger.Nop()),
	}
	return nbastats.New(append(base, opts...)...)
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a provider serving the three endpoints", t, func() {
		var calls int32
		var lastQuery, lastReferer, lastAgent string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			lastQuery = r.URL.RawQuery
			lastReferer = r.Header.Get("Referer")
			lastAgent = r.Header.Get("User-Agent")
			switch r.URL.Path {
			case "/leaguedashplayerstats":
				_, _ = w.Write([]byte(generalBody))
			case "/leaguedashptdefend":
				_, _ = w.Write([]byte(ptDefendBody))
			case "/commonallplayers":
				_, _ = w.Write([]byte(playersBody))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		c := newClient(srv.URL)

		Convey("When the general dashboard is fetched", func() {
			tbl, err := c.General(ctx, "2023-24")

			Convey("Then it is parsed and tagged with the season", func() {
				So(err, ShouldBeNil)
				So(tbl.Name, ShouldEqual, "general")
				So(tbl.Rows, ShouldHaveLength, 2)
				So(tbl.Rows[0].Num["DEF_RATING"], ShouldAlmostEqual, 114.2)
				So(tbl.Rows[0].Str[model.ColSeason], ShouldEqual, "2023-24")
				So(math.IsNaN(tbl.Rows[1].Num["DEF_RATING"]), ShouldBeTrue)
			})

			Convey("And numeric columns are detected", func() {
				def, _ := tbl.Column("DEF_RATING")
				name, _ := tbl.Column(model.ColPlayerName)
				So(def.Numeric, ShouldBeTrue)
				So(name.Numeric, ShouldBeFalse)
			})

			Convey("And the request carries the defense filters and browser headers", func() {
				So(lastQuery, ShouldContainSubstring, "MeasureType=Defense")
				So(lastQuery, ShouldContainSubstring, "PerMode=PerGame")
				So(lastQuery, ShouldContainSubstring, "Season=2023-24")
				So(lastReferer, ShouldEqual, "https://www.nba.com/")
				So(lastAgent, ShouldContainSubstring, "Mozilla")
			})
		})

		Convey("When a tracking category is fetched", func() {
			tbl, err := c.Tracking(ctx, "2024-25", nbastats.LessThan6Ft)

			Convey("Then the category is requested and string cells stay strings", func() {
				So(err, ShouldBeNil)
				So(tbl.Name, ShouldEqual, "less_than_6ft")
				So(lastQuery, ShouldContainSubstring, "DefenseCategory=Less+Than+6Ft")
				freq, _ := tbl.Column("FREQ")
				So(freq.Numeric, ShouldBeFalse)
				So(tbl.Rows[0].Str[model.ColPlayerPosition], ShouldEqual, "G")
			})
		})

		Convey("When the player index is fetched", func() {
			players, err := c.Players(ctx, "2024-25")

			Convey("Then rows without an id are skipped", func() {
				So(err, ShouldBeNil)
				So(players, ShouldResemble, []model.PlayerIdentity{{PlayerID: 201939, Name: "Stephen Curry"}})
			})
		})

		Convey("When a cache is configured", func() {
			cached := newClient(srv.URL, nbastats.WithCache(cache.NewMemory(), time.Hour))
			_, err1 := cached.General(ctx, "2023-24")
			_, err2 := cached.General(ctx, "2023-24")

			Convey("Then the second request is served from the cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a failing provider", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := newClient(srv.URL, nbastats.WithBreakerThreshold(2, time.Hour))

		Convey("When requests fail", func() {
			_, err := c.General(ctx, "2023-24")

			Convey("Then the error is an external fetch error", func() {
				So(errors.Is(err, nbastats.ErrStatus), ShouldBeTrue)
				So(errors.Is(err, model.ErrExternalFetch), ShouldBeTrue)
			})
		})

		Convey("When failures reach the breaker threshold", func() {
			_, _ = c.General(ctx, "2023-24")
			_, _ = c.General(ctx, "2023-24")
			_, err := c.General(ctx, "2023-24")

			Convey("Then the breaker opens and stops calling the provider", func() {
				So(errors.Is(err, nbastats.ErrBreakerOpen), ShouldBeTrue)
				So(errors.Is(err, model.ErrExternalFetch), ShouldBeTrue)
				So(c.State(), ShouldEqual, gobreaker.StateOpen)
				So(atomic.LoadInt32(&calls), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a malformed response", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"resultSets":[]}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).General(ctx, "2023-24")

		Convey("Then it reports the missing result set", func() {
			So(errors.Is(err, nbastats.ErrNoResultSet), ShouldBeTrue)
		})
	})
}
