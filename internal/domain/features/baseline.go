package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/defscout/internal/domain/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of most recent seasons averaged per player.
const DefaultWindow = 2

// Averages restricts t to its `window` most recent Years and averages every
// metric per player. Players are returned in ascending id order.
func Averages(t model.SeasonTable, metrics model.MetricSet, window int) ([]model.PlayerAverage, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	years := t.Years()
	if len(years) > window {
		years = years[len(years)-window:]
	}
	recent := make(map[int]struct{}, len(years))
	for _, y := range years {
		recent[y] = struct{}{}
	}

	type group struct {
		rows []model.PlayerSeason
	}
	groups := make(map[int64]*group)
	var ids []int64
	present := make([]bool, metrics.Len())
	for _, r := range t.Rows {
		if _, ok := recent[r.Year]; !ok {
			continue
		}
		g, ok := groups[r.PlayerID]
		if !ok {
			g = &group{}
			groups[r.PlayerID] = g
			ids = append(ids, r.PlayerID)
		}
		g.rows = append(g.rows, r)
		for i := 0; i < metrics.Len(); i++ {
			if _, ok := r.Values[metrics.At(i)]; ok {
				present[i] = true
			}
		}
	}
	if len(ids) == 0 {
		return nil, ErrEmptyWindow
	}
	for i, ok := range present {
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMetricMissing, metrics.At(i))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.PlayerAverage, 0, len(ids))
	for _, id := range ids {
		rows := groups[id].rows
		avg := make([]float64, metrics.Len())
		for i := range avg {
			vals := make([]float64, 0, len(rows))
			for _, r := range rows {
				if v, ok := r.Values[metrics.At(i)]; ok && !math.IsNaN(v) {
					vals = append(vals, v)
				}
			}
			avg[i] = mean(vals)
		}
		positions := make([]string, len(rows))
		for i, r := range rows {
			positions[i] = r.Position
		}
		out = append(out, model.PlayerAverage{
			PlayerID: id,
			Name:     rows[len(rows)-1].Name,
			Position: Mode(positions),
			Seasons:  len(rows),
			Avg:      avg,
		})
	}
	return out, nil
}

// Mode returns the most frequent non-empty label. When several labels tie,
// the one encountered first wins.
func Mode(labels []string) string {
	counts := make(map[string]int, len(labels))
	best := 0
	for _, l := range labels {
		if l == "" {
			continue
		}
		counts[l]++
		if counts[l] > best {
			best = counts[l]
		}
	}
	for _, l := range labels {
		if l != "" && counts[l] == best {
			return l
		}
	}
	return ""
}

// ComputeBaseline builds the global and positional {mean, min, max} tables.
// Players without a position do not form a group; their positional stats are
// undefined.
func ComputeBaseline(avgs []model.PlayerAverage, metrics model.MetricSet) model.Baseline {
	b := model.Baseline{
		Global:     make([]model.Stat, metrics.Len()),
		Positional: make(map[string][]model.Stat),
	}
	byPos := make(map[string][]model.PlayerAverage)
	for _, a := range avgs {
		if a.Position != "" {
			byPos[a.Position] = append(byPos[a.Position], a)
		}
	}
	for i := 0; i < metrics.Len(); i++ {
		b.Global[i] = columnStat(avgs, i)
	}
	for pos, group := range byPos {
		stats := make([]model.Stat, metrics.Len())
		for i := range stats {
			stats[i] = columnStat(group, i)
		}
		b.Positional[pos] = stats
	}
	return b
}

func columnStat(avgs []model.PlayerAverage, metric int) model.Stat {
	vals := make([]float64, 0, len(avgs))
	for _, a := range avgs {
		if v := a.Avg[metric]; !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return model.UndefinedStat()
	}
	return model.Stat{Mean: stat.Mean(vals, nil), Min: floats.Min(vals), Max: floats.Max(vals)}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}
