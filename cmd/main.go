package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/defscout/internal/adapters/cache"
	"github.com/okian/defscout/internal/adapters/fetch"
	"github.com/okian/defscout/internal/adapters/http/api"
	"github.com/okian/defscout/internal/adapters/nbastats"
	"github.com/okian/defscout/internal/adapters/repository"
	"github.com/okian/defscout/internal/adapters/sink"
	app "github.com/okian/defscout/internal/app"
	"github.com/okian/defscout/internal/config"
	"github.com/okian/defscout/internal/domain/cluster"
	"github.com/okian/defscout/internal/domain/features"
	"github.com/okian/defscout/internal/domain/preprocess"
	"github.com/okian/defscout/internal/synthetic"
	"github.com/okian/defscout/pkg/logger"
	"github.com/okian/defscout/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const usage = `usage: defscout [-config file.yaml] <command>

commands:
  run    fetch, engineer, cluster and persist once (default)
  serve  refresh on a schedule and serve the latest result over HTTP
`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("defscout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = io.WriteString(stderr, usage) }
	configPath := fs.String("config", "", "YAML config file (overrides "+config.EnvFile+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	command := "run"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}
	if command != "run" && command != "serve" {
		fs.Usage()
		return 2
	}
	if *configPath != "" {
		_ = os.Setenv(config.EnvFile, *configPath)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		_, _ = fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithFile(cfg.LogFile)); err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	pipeline, cleanup, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build pipeline", logger.Error(err))
		return 1
	}
	defer cleanup()

	if command == "serve" {
		err = serve(ctx, cfg, pipeline, log)
	} else {
		_, err = pipeline.Run(ctx)
	}
	if err != nil {
		log.Error(ctx, "defscout failed", logger.String("command", command), logger.Error(err))
		return 1
	}
	return 0
}

// buildPipeline wires the configured provider, cache and sink into a pipeline.
func buildPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Pipeline, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var provider fetch.Provider
	switch cfg.Source {
	case config.SourceSynthetic:
		provider = synthetic.New(
			synthetic.WithPlayers(cfg.SyntheticPlayers),
			synthetic.WithSeed(cfg.SyntheticSeed),
		)
	default:
		var store cache.Cache = cache.NewMemory()
		if cfg.CacheRedisAddr != "" {
			r, err := cache.NewRedis(ctx, cfg.CacheRedisAddr)
			if err != nil {
				return nil, cleanup, err
			}
			closers = append(closers, r.Close)
			store = r
		}
		provider = nbastats.New(
			nbastats.WithBaseURL(cfg.StatsBaseURL),
			nbastats.WithTimeout(cfg.StatsTimeout),
			nbastats.WithRateLimit(cfg.StatsRPS, cfg.StatsBurst),
			nbastats.WithCache(store, cfg.CacheTTL),
			nbastats.WithLogger(log.Named("nbastats")),
		)
	}

	out, err := sink.Open(ctx, cfg.OutputPath, cfg.OutputDSN, log.Named("sink"))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	closers = append(closers, out.Close)

	pipeline := app.NewPipeline(
		fetch.NewPool(provider, fetch.WithWorkers(cfg.FetchWorkers), fetch.WithLogger(log.Named("fetch"))),
		out,
		app.WithSeasons(cfg.Seasons),
		app.WithPreprocessor(preprocess.New(
			preprocess.WithGamesPlayedThreshold(cfg.GPThreshold),
			preprocess.WithMinutesThreshold(cfg.MinThreshold),
			preprocess.WithSeasonRule(cfg.SeasonRule(time.Now())),
			preprocess.WithLogger(log.Named("preprocess")),
		)),
		app.WithExcludedColumns(cfg.ExcludedColumns),
		app.WithEngineerOptions(
			features.WithWindow(cfg.RecentSeasons),
			features.WithLowerIsBetter(cfg.LowerIsBetter),
			features.WithDegenerateFill(cfg.DegenerateFill),
		),
		app.WithClusterer(cluster.New(
			cluster.WithK(cfg.NClusters),
			cluster.WithSeed(cfg.RandomSeed),
			cluster.WithMaxIter(cfg.KMeansMaxIter),
			cluster.WithNInit(cfg.KMeansNInit),
			cluster.WithTolerance(cfg.KMeansTolerance),
			cluster.WithLogger(log.Named("cluster")),
		)),
		app.WithPipelineLogger(log.Named("pipeline")),
	)
	return pipeline, cleanup, nil
}

// serve refreshes the snapshot on schedule and serves it until ctx is done.
func serve(ctx context.Context, cfg *config.Config, pipeline *app.Pipeline, log logger.Logger) error {
	if err := metrics.RegisterRuntimeCollectors(); err != nil {
		log.Warn(ctx, "runtime collectors unavailable", logger.Error(err))
	}

	svc := app.New(pipeline, repository.NewSnapshotStore(),
		app.WithSchedule(cfg.RefreshSchedule),
		app.WithLogger(log.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
