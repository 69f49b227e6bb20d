// Package types contains the JSON shapes returned by the HTTP API.
package types

import (
	"math"
	"strconv"
	"time"
)

// Float is a float64 that encodes undefined values (NaN, ±Inf) as null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Floats converts a slice.
func Floats(in []float64) []Float {
	out := make([]Float, len(in))
	for i, v := range in {
		out[i] = Float(v)
	}
	return out
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank         int              `json:"rank"`
	PlayerID     int64            `json:"player_id"`
	Name         string           `json:"name"`
	Position     string           `json:"position"`
	DefenseScore Float            `json:"defense_score"`
	Cluster      int              `json:"cluster"`
	Averages     map[string]Float `json:"averages,omitempty"`
}

// Cluster summarizes one cluster of the published run.
type Cluster struct {
	Label     int     `json:"label"`
	Size      int     `json:"size"`
	MeanScore Float   `json:"mean_defense_score"`
	Centroid  []Float `json:"centroid"`
}

// ClusterDetail is a cluster with its rank-ordered members.
type ClusterDetail struct {
	Cluster
	Members []Entry `json:"members"`
}

// Run describes the published snapshot.
type Run struct {
	RunID       string    `json:"run_id"`
	PublishedAt time.Time `json:"published_at"`
	Players     int       `json:"players"`
	Metrics     []string  `json:"metrics"`
	Clusters    int       `json:"clusters"`
}

// Refresh is the POST /refresh response.
type Refresh struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
}
