package model

import (
	"fmt"
	"math"
)

// MetricSet is the ordered list of defensive metric columns. It is computed
// once per run and passed to every downstream stage.
type MetricSet struct {
	names []string
	index map[string]int
}

// NewMetricSet builds a MetricSet. Duplicate names are rejected.
func NewMetricSet(names ...string) (MetricSet, error) {
	ms := MetricSet{names: make([]string, 0, len(names)), index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, dup := ms.index[n]; dup {
			return MetricSet{}, fmt.Errorf("%w: duplicate metric %q", ErrInputData, n)
		}
		ms.index[n] = len(ms.names)
		ms.names = append(ms.names, n)
	}
	return ms, nil
}

// Names returns a copy of the metric names.
func (m MetricSet) Names() []string {
	return append([]string(nil), m.names...)
}

// Len returns the number of metrics.
func (m MetricSet) Len() int { return len(m.names) }

// At returns the i-th metric name.
func (m MetricSet) At(i int) string { return m.names[i] }

// Index returns the position of name, or -1.
func (m MetricSet) Index(name string) int {
	if i, ok := m.index[name]; ok {
		return i
	}
	return -1
}

// Contains reports membership by exact name.
func (m MetricSet) Contains(name string) bool { return m.Index(name) >= 0 }

// DiffKind enumerates the six difference features derived per metric.
type DiffKind int

// Difference features, in column order.
const (
	DiffMeanGlobal DiffKind = iota
	DiffToMinGlobal
	DiffToMaxGlobal
	DiffMeanPos
	DiffToMinPos
	DiffToMaxPos
)

// DiffKinds is the number of difference features per metric.
const DiffKinds = 6

var diffPrefixes = [DiffKinds]string{
	"diff_mean_global",
	"diff_to_min_global",
	"diff_to_max_global",
	"diff_mean_pos",
	"diff_to_min_pos",
	"diff_to_max_pos",
}

func (k DiffKind) String() string { return diffPrefixes[k] }

// DiffColumn names the raw difference column for metric.
func DiffColumn(k DiffKind, metric string) string { return diffPrefixes[k] + "_" + metric }

// NormColumn names the normalized difference column for metric.
func NormColumn(k DiffKind, metric string) string { return "norm_" + DiffColumn(k, metric) }

// FeatureIndex returns the flat position of (metric, kind) in Diffs and Norms.
func FeatureIndex(metric int, k DiffKind) int { return metric*DiffKinds + int(k) }

// Stat is a {mean, min, max} baseline for one metric.
type Stat struct {
	Mean float64
	Min  float64
	Max  float64
}

// UndefinedStat is used when a baseline cannot be computed.
func UndefinedStat() Stat {
	return Stat{Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
}

// PlayerAverage is one player's multi-season average over the window.
type PlayerAverage struct {
	PlayerID int64
	Name     string
	Position string
	// Seasons is the number of season rows averaged.
	Seasons int
	// Avg is aligned with the MetricSet.
	Avg []float64
}

// Baseline holds global and positional reference statistics, aligned with the
// MetricSet.
type Baseline struct {
	Global     []Stat
	Positional map[string][]Stat
}

// ForPosition returns the positional stats for pos, or undefined stats when
// the position has no group.
func (b Baseline) ForPosition(pos string) []Stat {
	if stats, ok := b.Positional[pos]; ok {
		return stats
	}
	out := make([]Stat, len(b.Global))
	for i := range out {
		out[i] = UndefinedStat()
	}
	return out
}

// FeatureRecord extends a PlayerAverage with baselines, differences,
// normalized differences and the composite score.
type FeatureRecord struct {
	PlayerAverage
	Positional []Stat
	// Diffs and Norms use the FeatureIndex layout.
	Diffs        []float64
	Norms        []float64
	DefenseScore float64
}

// FeatureTable is the engineer step output.
type FeatureTable struct {
	Metrics MetricSet
	Records []FeatureRecord
}

// FeatureColumns lists the normalized columns in FeatureIndex order.
func (t FeatureTable) FeatureColumns() []string {
	cols := make([]string, 0, t.Metrics.Len()*DiffKinds)
	for i := 0; i < t.Metrics.Len(); i++ {
		for k := DiffKind(0); k < DiffKinds; k++ {
			cols = append(cols, NormColumn(k, t.Metrics.At(i)))
		}
	}
	return cols
}
