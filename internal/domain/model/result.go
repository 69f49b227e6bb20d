package model

import "math"

// Assignment is a FeatureRecord with its cluster label.
type Assignment struct {
	FeatureRecord
	Cluster int
}

// ClusterSummary describes one cluster of a run.
type ClusterSummary struct {
	Label     int
	Size      int
	MeanScore float64
	Centroid  []float64
}

// ResultTable is the final output of a run.
type ResultTable struct {
	RunID    string
	Metrics  MetricSet
	Rows     []Assignment
	Clusters []ClusterSummary
}

// Header returns the flattened column names of the result table.
func (t ResultTable) Header() []string {
	n := t.Metrics.Len()
	cols := make([]string, 0, 6+n*(4+2*DiffKinds))
	cols = append(cols, "RUN_ID", ColPlayerID, ColPlayerName, "POSITION")
	for i := 0; i < n; i++ {
		cols = append(cols, "avg_"+t.Metrics.At(i))
	}
	for i := 0; i < n; i++ {
		m := t.Metrics.At(i)
		cols = append(cols, m+"_mean", m+"_min", m+"_max")
	}
	for i := 0; i < n; i++ {
		for k := DiffKind(0); k < DiffKinds; k++ {
			cols = append(cols, DiffColumn(k, t.Metrics.At(i)))
		}
	}
	for i := 0; i < n; i++ {
		for k := DiffKind(0); k < DiffKinds; k++ {
			cols = append(cols, NormColumn(k, t.Metrics.At(i)))
		}
	}
	return append(cols, "defense_score", "cluster")
}

// Record flattens row i in Header order. Undefined numbers become nil.
func (t ResultTable) Record(i int) []any {
	a := t.Rows[i]
	n := t.Metrics.Len()
	out := make([]any, 0, 6+n*(4+2*DiffKinds))
	out = append(out, t.RunID, a.PlayerID, a.Name, a.Position)
	for _, v := range a.Avg {
		out = append(out, cell(v))
	}
	for _, s := range a.Positional {
		out = append(out, cell(s.Mean), cell(s.Min), cell(s.Max))
	}
	for _, v := range a.Diffs {
		out = append(out, cell(v))
	}
	for _, v := range a.Norms {
		out = append(out, cell(v))
	}
	return append(out, cell(a.DefenseScore), a.Cluster)
}

func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
