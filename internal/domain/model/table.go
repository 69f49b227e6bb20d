// Package model contains the records passed between pipeline stages.
package model

import (
	"math"
	"sort"
)

// Well-known column names.
const (
	ColPlayerID       = "PLAYER_ID"
	ColPlayerName     = "PLAYER_NAME"
	ColPlayerPosition = "PLAYER_POSITION"
	ColTeamAbbrev     = "TEAM_ABBREVIATION"
	ColCloseDefID     = "CLOSE_DEF_PERSON_ID"
	ColSeason         = "SEASON"
	ColGamesPlayed    = "GP"
	ColMinutes        = "MIN"
	ColYear           = "Year"
)

// Column describes one table column. Numeric columns hold float64 values in
// Row.Num, everything else holds strings in Row.Str.
type Column struct {
	Name    string
	Numeric bool
}

// Row is one record of a RawTable.
type Row struct {
	Num map[string]float64
	Str map[string]string
}

// NewRow returns an empty row ready for writes.
func NewRow() Row {
	return Row{Num: make(map[string]float64), Str: make(map[string]string)}
}

// Float returns a numeric cell. Missing cells report ok=false.
func (r Row) Float(col string) (float64, bool) {
	v, ok := r.Num[col]
	return v, ok
}

// String returns a string cell, or "" when absent.
func (r Row) String(col string) string {
	return r.Str[col]
}

// ID returns a numeric identifier column as int64.
func (r Row) ID(col string) (int64, bool) {
	v, ok := r.Num[col]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return int64(v), true
}

// RawTable is a provider result set. Rows are immutable once returned by the
// fetch layer.
type RawTable struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// Has reports whether the table declares col.
func (t RawTable) Has(col string) bool {
	for _, c := range t.Columns {
		if c.Name == col {
			return true
		}
	}
	return false
}

// Column returns the named column definition.
func (t RawTable) Column(col string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == col {
			return c, true
		}
	}
	return Column{}, false
}

// Concat stacks tables with the same logical shape. Columns are the union in
// order of first appearance; a column stays numeric only if it is numeric in
// every table declaring it.
func Concat(name string, tables ...RawTable) RawTable {
	out := RawTable{Name: name}
	idx := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if i, ok := idx[c.Name]; ok {
				out.Columns[i].Numeric = out.Columns[i].Numeric && c.Numeric
				continue
			}
			idx[c.Name] = len(out.Columns)
			out.Columns = append(out.Columns, c)
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}

// PlayerIdentity maps a provider player id to its canonical name.
type PlayerIdentity struct {
	PlayerID int64
	Name     string
}

// RawTables bundles everything the fetch collaborator returns.
type RawTables struct {
	General      RawTable
	LessThan6Ft  RawTable
	LessThan10Ft RawTable
	ThreePoint   RawTable
	Players      []PlayerIdentity
}

// PlayerNames indexes the player lookup by id.
func (r RawTables) PlayerNames() map[int64]string {
	out := make(map[int64]string, len(r.Players))
	for _, p := range r.Players {
		out[p.PlayerID] = p.Name
	}
	return out
}

// PlayerSeason is one merged, threshold-filtered player-season.
type PlayerSeason struct {
	PlayerID int64
	Name     string
	Team     string
	Position string
	Season   string
	Year     int
	GP       float64
	Min      float64
	// Values holds every numeric column of the merged row.
	Values map[string]float64
}

// SeasonTable is the preprocess output.
type SeasonTable struct {
	// NumericColumns lists numeric columns in merge order.
	NumericColumns []string
	Rows           []PlayerSeason
}

// Years returns the distinct Year values in ascending order.
func (t SeasonTable) Years() []int {
	seen := make(map[int]struct{})
	var years []int
	for _, r := range t.Rows {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Ints(years)
	return years
}
