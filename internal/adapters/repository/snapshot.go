package repository

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/metrics"
)

// Snapshot is an immutable view of one run. Entries are ordered by score
// DESC, then player id ASC; undefined scores rank last.
type Snapshot struct {
	Meta     Meta
	Entries  []Entry
	byPlayer map[int64]int
	clusters []model.ClusterSummary
	members  map[int][]int
}

// SnapshotStore implements Store with an atomically swapped Snapshot.
// Readers never block a publish.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.
func (s *SnapshotStore) Publish(_ context.Context, t model.ResultTable) error {
	snap := build(t, s.now())
	s.snapshot.Store(snap)
	metrics.UpdateSnapshotPlayers(len(snap.Entries))
	return nil
}

func build(t model.ResultTable, at time.Time) *Snapshot {
	names := t.Metrics.Names()
	entries := make([]Entry, len(t.Rows))
	for i, r := range t.Rows {
		avgs := make(map[string]float64, len(names))
		for m, name := range names {
			avgs[name] = r.Avg[m]
		}
		entries[i] = Entry{
			PlayerID: r.PlayerID,
			Name:     r.Name,
			Position: r.Position,
			Score:    r.DefenseScore,
			Cluster:  r.Cluster,
			Averages: avgs,
		}
	}
	sortEntries(entries)

	snap := &Snapshot{
		Meta: Meta{
			RunID:       t.RunID,
			PublishedAt: at,
			Players:     len(entries),
			Metrics:     names,
			Clusters:    len(t.Clusters),
		},
		Entries:  entries,
		byPlayer: make(map[int64]int, len(entries)),
		clusters: append([]model.ClusterSummary(nil), t.Clusters...),
		members:  make(map[int][]int),
	}
	for i := range entries {
		entries[i].Rank = i + 1
		snap.byPlayer[entries[i].PlayerID] = i
		snap.members[entries[i].Cluster] = append(snap.members[entries[i].Cluster], i)
	}
	return snap
}

func (s *SnapshotStore) current() (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Rank implements Store.
func (s *SnapshotStore) Rank(_ context.Context, playerID int64) (Entry, error) {
	snap, err := s.current()
	if err != nil {
		return Entry{}, err
	}
	i, ok := snap.byPlayer[playerID]
	if !ok {
		metrics.RecordError("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return snap.Entries[i], nil
}

// TopN implements Store.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordError("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	if n > len(snap.Entries) {
		n = len(snap.Entries)
	}
	return append([]Entry(nil), snap.Entries[:n]...), nil
}

// Clusters implements Store.
func (s *SnapshotStore) Clusters(_ context.Context) ([]model.ClusterSummary, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return append([]model.ClusterSummary(nil), snap.clusters...), nil
}

// Members implements Store.
func (s *SnapshotStore) Members(_ context.Context, label int) (model.ClusterSummary, []Entry, error) {
	snap, err := s.current()
	if err != nil {
		return model.ClusterSummary{}, nil, err
	}
	if label < 0 || label >= len(snap.clusters) {
		return model.ClusterSummary{}, nil, ErrUnknownCluster
	}
	idx := snap.members[label]
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = snap.Entries[j]
	}
	return snap.clusters[label], out, nil
}

// Meta implements Store.
func (s *SnapshotStore) Meta(_ context.Context) (Meta, error) {
	snap, err := s.current()
	if err != nil {
		return Meta{}, err
	}
	return snap.Meta, nil
}

// Count implements Store.
func (s *SnapshotStore) Count(_ context.Context) int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Entries)
}

// sortEntries orders by score descending with player id ascending on ties.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Score, entries[j].Score
		switch {
		case math.IsNaN(a) && math.IsNaN(b):
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case a != b:
			return a > b
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
}
