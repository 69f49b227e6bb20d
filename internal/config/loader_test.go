package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/defscout/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.NClusters, convey.ShouldEqual, 10)
				convey.So(cfg.StatsTimeout, convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DEFSCOUT_N_CLUSTERS", "4")
			_ = os.Setenv("DEFSCOUT_SEASONS", "2021-22, 2022-23,2023-24")
			_ = os.Setenv("DEFSCOUT_CACHE_TTL", "15m")
			_ = os.Setenv("DEFSCOUT_SOURCE", "synthetic")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.NClusters, convey.ShouldEqual, 4)
				convey.So(cfg.Seasons, convey.ShouldResemble, []string{"2021-22", "2022-23", "2023-24"})
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.Source, convey.ShouldEqual, config.SourceSynthetic)
			})
		})

		convey.Convey("When a list is shorter than its default", func() {
			_ = os.Setenv("DEFSCOUT_LOWER_IS_BETTER", "DEF_RATING")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it replaces the default entirely", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LowerIsBetter, convey.ShouldResemble, []string{"DEF_RATING"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
n_clusters: 6
random_seed: 7
seasons:
  - "2022-23"
  - "2023-24"
`)
			_ = os.Setenv("DEFSCOUT_CONFIG", path)
			_ = os.Setenv("DEFSCOUT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.NClusters, convey.ShouldEqual, 6)
				convey.So(cfg.RandomSeed, convey.ShouldEqual, 7)
				convey.So(cfg.Seasons, convey.ShouldResemble, []string{"2022-23", "2023-24"})
				convey.So(cfg.GPThreshold, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("DEFSCOUT_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DEFSCOUT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("DEFSCOUT_N_CLUSTERS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("DEFSCOUT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"DEFSCOUT_CONFIG", "DEFSCOUT_ADDR", "DEFSCOUT_N_CLUSTERS", "DEFSCOUT_SEASONS", "DEFSCOUT_SOURCE",
		"DEFSCOUT_CACHE_TTL", "DEFSCOUT_LOWER_IS_BETTER",
	} {
		_ = os.Unsetenv(k)
	}
}
