package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/defscout/internal/adapters/cache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory cache with a controllable clock", t, func() {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		c := cache.NewMemory(cache.WithClock(func() time.Time { return now }))

		So(c.Set(ctx, "k", []byte("v"), time.Minute), ShouldBeNil)

		Convey("Then a fresh entry is returned", func() {
			v, ok, err := c.Get(ctx, "k")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(string(v), ShouldEqual, "v")
		})

		Convey("And the stored value is a copy", func() {
			v, _, _ := c.Get(ctx, "k")
			v[0] = 'x'
			again, _, _ := c.Get(ctx, "k")
			So(string(again), ShouldEqual, "v")
		})

		Convey("And an expired entry is gone", func() {
			now = now.Add(time.Minute)
			_, ok, err := c.Get(ctx, "k")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(c.Len(), ShouldEqual, 0)
		})

		Convey("And a zero ttl never expires", func() {
			So(c.Set(ctx, "forever", []byte("x"), 0), ShouldBeNil)
			now = now.Add(24 * 365 * time.Hour)
			_, ok, _ := c.Get(ctx, "forever")
			So(ok, ShouldBeTrue)
		})

		Convey("And deleted keys miss", func() {
			So(c.Delete(ctx, "k"), ShouldBeNil)
			_, ok, _ := c.Get(ctx, "k")
			So(ok, ShouldBeFalse)
			So(c.Name(), ShouldEqual, "memory")
		})
	})

	Convey("ProviderKey prefixes the url", t, func() {
		So(cache.ProviderKey("nba", "https://x/y?a=1"), ShouldEqual, "nba:https://x/y?a=1")
	})
}

func TestRedis(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unreachable redis address", t, func() {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		_, err := cache.NewRedis(cctx, "127.0.0.1:1")

		Convey("Then connecting fails with a backend error", func() {
			So(errors.Is(err, cache.ErrBackend), ShouldBeTrue)
		})
	})

	addr := os.Getenv("DEFSCOUT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DEFSCOUT_TEST_REDIS_ADDR not set")
	}

	Convey("Given a live redis", t, func() {
		c, err := cache.NewRedis(ctx, addr)
		So(err, ShouldBeNil)
		defer func() { _ = c.Close() }()

		So(c.Set(ctx, "defscout:test", []byte("v"), time.Minute), ShouldBeNil)

		Convey("Then values round-trip and deletes miss", func() {
			v, ok, err := c.Get(ctx, "defscout:test")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(string(v), ShouldEqual, "v")

			So(c.Delete(ctx, "defscout:test"), ShouldBeNil)
			_, ok, err = c.Get(ctx, "defscout:test")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
