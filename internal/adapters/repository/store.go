// Package repository holds the snapshot of the last successful run and
// answers ranking queries over it.
package repository

import (
	"context"
	"time"

	"github.com/okian/defscout/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank     int
	PlayerID int64
	Name     string
	Position string
	Score    float64
	Cluster  int
	// Averages holds the averaged metric values keyed by metric name.
	Averages map[string]float64
}

// Meta describes the published run.
type Meta struct {
	RunID       string
	PublishedAt time.Time
	Players     int
	Metrics     []string
	Clusters    int
}

// Store provides read access to the published ranking state.
type Store interface {
	// Publish replaces the current snapshot with the result of a run.
	Publish(ctx context.Context, t model.ResultTable) error

	// Rank returns the rank entry of a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID int64) (Entry, error)

	// TopN returns the top-N entries ordered by defense score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Clusters returns every cluster summary of the snapshot.
	Clusters(ctx context.Context) ([]model.ClusterSummary, error)

	// Members returns the summary and rank-ordered members of one cluster.
	Members(ctx context.Context, label int) (model.ClusterSummary, []Entry, error)

	// Meta describes the current snapshot.
	Meta(ctx context.Context) (Meta, error)

	// Count returns the number of players in the snapshot.
	Count(ctx context.Context) int
}
