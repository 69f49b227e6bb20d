// Package config defines the pipeline and service configuration.
//
// Values are layered by Load: defaults from New, then an optional YAML file,
// then DEFSCOUT_ environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/defscout/internal/domain/features"
	"github.com/okian/defscout/internal/domain/season"
	"github.com/robfig/cron/v3"
)

// Data sources.
const (
	SourceNBA       = "nba"
	SourceSynthetic = "synthetic"
)

const referenceDateLayout = "2006-01-02"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	// LogFile tees logs into a rotating file when set.
	LogFile string `koanf:"log_file"`

	// Seasons lists the season identifiers to fetch, e.g. "2023-24".
	Seasons []string `koanf:"seasons"`
	// Source selects the raw data provider: nba or synthetic.
	Source string `koanf:"source"`

	// OutputPath is the result file (.xlsx, .db, .sqlite).
	OutputPath string `koanf:"output_path"`
	// OutputDSN sends results to PostgreSQL instead of OutputPath.
	OutputDSN string `koanf:"output_dsn"`

	// GPThreshold and MinThreshold are strict lower bounds on games played
	// and minutes per game.
	GPThreshold  float64 `koanf:"gp_threshold"`
	MinThreshold float64 `koanf:"min_threshold"`

	// RecentSeasons is the averaging window.
	RecentSeasons int `koanf:"recent_seasons"`

	NClusters       int     `koanf:"n_clusters"`
	RandomSeed      int64   `koanf:"random_seed"`
	KMeansMaxIter   int     `koanf:"kmeans_max_iter"`
	KMeansNInit     int     `koanf:"kmeans_n_init"`
	KMeansTolerance float64 `koanf:"kmeans_tolerance"`

	// SeasonCutoffMonth: at or before this month the second year of a season
	// is used as its Year.
	SeasonCutoffMonth int `koanf:"season_cutoff_month"`
	// ReferenceDate (YYYY-MM-DD) pins the cutoff clock. Empty means the
	// process start time.
	ReferenceDate string `koanf:"reference_date"`

	DegenerateFill  float64  `koanf:"degenerate_fill"`
	LowerIsBetter   []string `koanf:"lower_is_better"`
	ExcludedColumns []string `koanf:"excluded_columns"`

	StatsBaseURL string        `koanf:"stats_base_url"`
	StatsTimeout time.Duration `koanf:"stats_timeout"`
	StatsRPS     float64       `koanf:"stats_rps"`
	StatsBurst   int           `koanf:"stats_burst"`
	FetchWorkers int           `koanf:"fetch_workers"`

	// CacheRedisAddr selects the Redis response cache; empty uses memory.
	CacheRedisAddr string        `koanf:"cache_redis_addr"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`

	// Addr configures the HTTP listen address in serve mode.
	Addr string `koanf:"addr"`
	// RefreshSchedule is a cron expression for serve mode refreshes.
	RefreshSchedule string `koanf:"refresh_schedule"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	SyntheticPlayers int   `koanf:"synthetic_players"`
	SyntheticSeed    int64 `koanf:"synthetic_seed"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Seasons:             []string{"2023-24", "2024-25"},
		Source:              SourceNBA,
		OutputPath:          "defensive_clusters.xlsx",
		GPThreshold:         20,
		MinThreshold:        12,
		RecentSeasons:       features.DefaultWindow,
		NClusters:           10,
		RandomSeed:          42,
		KMeansMaxIter:       300,
		KMeansNInit:         1,
		KMeansTolerance:     1e-4,
		SeasonCutoffMonth:   int(season.DefaultCutoffMonth),
		DegenerateFill:      features.DefaultDegenerateFill,
		LowerIsBetter:       slices.Clone(features.DefaultLowerIsBetter),
		ExcludedColumns:     slices.Clone(features.DefaultExcludedColumns),
		StatsBaseURL:        "https://stats.nba.com/stats",
		StatsTimeout:        30 * time.Second,
		StatsRPS:            1,
		StatsBurst:          1,
		FetchWorkers:        4,
		CacheTTL:            6 * time.Hour,
		Addr:                ":9080",
		RefreshSchedule:     "0 6 * * *",
		MaxLeaderboardLimit: 100,
		SyntheticPlayers:    60,
		SyntheticSeed:       7,
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	switch {
	case len(c.Seasons) == 0:
		return invalid("seasons must not be empty")
	case c.GPThreshold <= 0 || c.MinThreshold <= 0:
		return invalid("thresholds must be positive")
	case c.RecentSeasons < 1:
		return invalid("recent_seasons must be at least 1")
	case c.NClusters < 1:
		return invalid("n_clusters must be at least 1")
	case c.KMeansNInit < 1 || c.KMeansMaxIter < 1:
		return invalid("kmeans_n_init and kmeans_max_iter must be at least 1")
	case c.KMeansTolerance < 0:
		return invalid("kmeans_tolerance must not be negative")
	case !(c.DegenerateFill >= 0 && c.DegenerateFill <= 1):
		return invalid("degenerate_fill must be within [0,1]")
	case c.SeasonCutoffMonth < 1 || c.SeasonCutoffMonth > 12:
		return invalid("season_cutoff_month must be within 1..12")
	case c.Source != SourceNBA && c.Source != SourceSynthetic:
		return invalid(fmt.Sprintf("unknown source %q", c.Source))
	case c.FetchWorkers < 1:
		return invalid("fetch_workers must be at least 1")
	case c.StatsRPS <= 0 || c.StatsBurst < 1:
		return invalid("stats_rps and stats_burst must be positive")
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.OutputPath == "" && c.OutputDSN == "":
		return invalid("output_path or output_dsn must be set")
	}
	for _, s := range c.Seasons {
		if _, _, err := season.Parse(s); err != nil {
			return invalid(err.Error())
		}
	}
	if _, err := c.referenceTime(); err != nil {
		return invalid(err.Error())
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return invalid(fmt.Sprintf("refresh_schedule %q: %v", c.RefreshSchedule, err))
		}
	}
	return nil
}

// SeasonRule returns the season to Year rule. Without a reference date the
// clock is pinned to now, so a whole run sees a single date.
func (c *Config) SeasonRule(now time.Time) season.Rule {
	ref, err := c.referenceTime()
	if err != nil || ref.IsZero() {
		ref = now
	}
	return season.FixedRule(time.Month(c.SeasonCutoffMonth), ref)
}

func (c *Config) referenceTime() (time.Time, error) {
	if c.ReferenceDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(referenceDateLayout, c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference_date %q: want YYYY-MM-DD", c.ReferenceDate)
	}
	return t, nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
