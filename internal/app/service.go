package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/defscout/internal/adapters/repository"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/internal/domain/types"
	"github.com/okian/defscout/pkg/logger"
	"github.com/okian/defscout/pkg/metrics"
	"github.com/robfig/cron/v3"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (model.ResultTable, error)
}

// Service keeps the snapshot of the last successful run current and
// implements the dependencies required by the HTTP API.
type Service struct {
	mu sync.RWMutex
	// refresh serializes pipeline runs.
	refresh sync.Mutex

	runner Runner
	store  repository.Store
	cron   *cron.Cron

	schedule       string
	refreshOnStart bool

	// State
	started     bool
	lastAttempt time.Time
	lastErr     error
	runs        int
	failures    int
	baseCtx     context.Context
	cancel      context.CancelFunc

	logger logger.Logger
}

// New constructs a Service refreshing store from runner.
func New(runner Runner, store repository.Store, opts ...Option) *Service {
	s := &Service{
		runner:         runner,
		store:          store,
		refreshOnStart: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules refreshes and, unless disabled, triggers the first one in
// the background.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.cron = cron.New()
	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, func() { s.scheduled("cron") }); err != nil {
			s.cancel()
			return fmt.Errorf("schedule %q: %w", s.schedule, err)
		}
	}
	s.cron.Start()
	s.started = true

	s.logger.Info(ctx, "service started",
		logger.String("schedule", s.schedule),
		logger.Any("refresh_on_start", s.refreshOnStart),
	)
	if s.refreshOnStart {
		go s.scheduled("startup")
	}
	return nil
}

// Stop waits for a running refresh to finish and stops the scheduler.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	<-c.Stop().Done()
	cancel()
	// Wait out a refresh started outside the scheduler.
	s.refresh.Lock()
	s.refresh.Unlock() //nolint:staticcheck // barrier

	s.logger.Info(context.Background(), "service stopped")
}

func (s *Service) scheduled(trigger string) {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
		s.logger.Warn(ctx, "scheduled refresh failed, keeping previous snapshot",
			logger.String("trigger", trigger),
			logger.Error(err),
		)
	}
}

// Refresh runs the pipeline and publishes its result. A failed run leaves
// the published snapshot untouched. Concurrent calls fail fast with
// ErrRefreshInProgress.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	if !s.refresh.TryLock() {
		return "", ErrRefreshInProgress
	}
	defer s.refresh.Unlock()
	return s.refreshLocked(ctx)
}

// Trigger starts a refresh in the background and returns immediately.
func (s *Service) Trigger() error {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrNotStarted
	}
	if !s.refresh.TryLock() {
		return ErrRefreshInProgress
	}
	go func() {
		defer s.refresh.Unlock()
		if _, err := s.refreshLocked(ctx); err != nil {
			s.logger.Warn(ctx, "triggered refresh failed, keeping previous snapshot", logger.Error(err))
		}
	}()
	return nil
}

func (s *Service) refreshLocked(ctx context.Context) (string, error) {
	table, err := s.runner.Run(ctx)
	if err == nil {
		err = s.store.Publish(ctx, table)
	}

	s.mu.Lock()
	s.lastAttempt = time.Now()
	s.lastErr = err
	s.runs++
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		return "", err
	}
	metrics.UpdateSnapshotPlayers(s.store.Count(ctx))
	return table.RunID, nil
}

// TopN returns the top N players by defense score.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e, false)
	}
	return out, nil
}

// Rank returns the entry of one player, including metric averages.
func (s *Service) Rank(ctx context.Context, playerID int64) (types.Entry, error) {
	e, err := s.store.Rank(ctx, playerID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e, true), nil
}

// Clusters returns every cluster summary of the published run.
func (s *Service) Clusters(ctx context.Context) ([]types.Cluster, error) {
	summaries, err := s.store.Clusters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Cluster, len(summaries))
	for i, c := range summaries {
		out[i] = toCluster(c)
	}
	return out, nil
}

// Cluster returns one cluster and its members.
func (s *Service) Cluster(ctx context.Context, label int) (types.ClusterDetail, error) {
	summary, members, err := s.store.Members(ctx, label)
	if err != nil {
		return types.ClusterDetail{}, err
	}
	detail := types.ClusterDetail{Cluster: toCluster(summary), Members: make([]types.Entry, len(members))}
	for i, e := range members {
		detail.Members[i] = toEntry(e, false)
	}
	return detail, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":  s.started,
		"schedule": s.schedule,
		"runs":     s.runs,
		"failures": s.failures,
		"players":  s.store.Count(ctx),
	}
	if !s.lastAttempt.IsZero() {
		stats["last_attempt"] = s.lastAttempt.UTC().Format(time.RFC3339)
	}
	if s.lastErr != nil {
		stats["last_error"] = s.lastErr.Error()
	}
	if meta, err := s.store.Meta(ctx); err == nil {
		stats["run"] = types.Run{
			RunID:       meta.RunID,
			PublishedAt: meta.PublishedAt,
			Players:     meta.Players,
			Metrics:     meta.Metrics,
			Clusters:    meta.Clusters,
		}
	}
	return stats
}

func toEntry(e repository.Entry, withAverages bool) types.Entry {
	out := types.Entry{
		Rank:         e.Rank,
		PlayerID:     e.PlayerID,
		Name:         e.Name,
		Position:     e.Position,
		DefenseScore: types.Float(e.Score),
		Cluster:      e.Cluster,
	}
	if withAverages && len(e.Averages) > 0 {
		out.Averages = make(map[string]types.Float, len(e.Averages))
		for k, v := range e.Averages {
			out.Averages[k] = types.Float(v)
		}
	}
	return out
}

func toCluster(c model.ClusterSummary) types.Cluster {
	return types.Cluster{
		Label:     c.Label,
		Size:      c.Size,
		MeanScore: types.Float(c.MeanScore),
		Centroid:  types.Floats(c.Centroid),
	}
}
