// Package preprocess merges the provider tables into one row per qualifying
// player-season.
package preprocess

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/defscout/internal/domain/dedupe"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/internal/domain/season"
	"github.com/okian/defscout/pkg/logger"
)

// Default thresholds.
const (
	DefaultGamesPlayed = 20
	DefaultMinutes     = 12
)

// projection selects and renames tracking columns joined onto the general table.
type projection struct {
	table  string
	cols   []string
	rename map[string]string
}

var (
	lt6Projection = projection{
		table: "less_than_6ft",
		cols:  []string{"FGM_LT_06", "FGA_LT_06", "LT_06_PCT"},
	}
	lt10Projection = projection{
		table:  "less_than_10ft",
		cols:   []string{"FGM_LT_10", "FGA_LT_10", "LT_10_PCT", "PLUSMINUS"},
		rename: map[string]string{"PLUSMINUS": "PLUSMINUS_from_point"},
	}
	threePointProjection = projection{
		table:  "three_point",
		cols:   []string{"FG3M", "FG3A", "FG3_PCT", "PLUSMINUS"},
		rename: map[string]string{"PLUSMINUS": "PLUSMINUS_three_point"},
	}
)

func (p projection) name(col string) string {
	if n, ok := p.rename[col]; ok {
		return n
	}
	return col
}

// Preprocessor joins and filters raw tables.
type Preprocessor struct {
	gpThreshold  float64
	minThreshold float64
	rule         season.Rule
	logger       logger.Logger
}

// New creates a Preprocessor with the default thresholds.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		gpThreshold:  DefaultGamesPlayed,
		minThreshold: DefaultMinutes,
		rule:         season.Rule{CutoffMonth: season.DefaultCutoffMonth},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("preprocess")
	}
	return p
}

type key = dedupe.Key

// Preprocess merges the four tables on (player, season), keeps players with
// GP and MIN strictly above the thresholds and derives Year.
func (p *Preprocessor) Preprocess(ctx context.Context, raw model.RawTables) (model.SeasonTable, error) {
	p.logger.Info(ctx, "starting preprocessing",
		logger.Int("general_rows", len(raw.General.Rows)),
		logger.Float64("gp_threshold", p.gpThreshold),
		logger.Float64("min_threshold", p.minThreshold),
	)

	if err := requireColumns(raw.General, model.ColPlayerID, model.ColSeason, model.ColGamesPlayed, model.ColMinutes); err != nil {
		return model.SeasonTable{}, err
	}
	for _, t := range []model.RawTable{raw.LessThan6Ft, raw.LessThan10Ft, raw.ThreePoint} {
		if err := requireColumns(t, model.ColCloseDefID, model.ColSeason); err != nil {
			return model.SeasonTable{}, err
		}
	}
	if err := requireColumns(raw.LessThan6Ft, model.ColPlayerPosition); err != nil {
		return model.SeasonTable{}, err
	}

	lt6, dropped := dedupe.Table(raw.LessThan6Ft, model.ColCloseDefID)
	if dropped > 0 {
		p.logger.Debug(ctx, "dropped duplicate tracking rows", logger.Int("rows", dropped))
	}
	lt6Idx := index(lt6)
	lt10Idx := index(raw.LessThan10Ft)
	tpIdx := index(raw.ThreePoint)

	columns := p.numericColumns(raw)
	qualifying := make(map[string]int)
	var rows []model.PlayerSeason

	for _, g := range raw.General.Rows {
		id, ok := g.ID(model.ColPlayerID)
		if !ok {
			continue
		}
		s := g.String(model.ColSeason)
		if _, ok := qualifying[s]; !ok {
			qualifying[s] = 0
		}
		k := key{PlayerID: id, Season: s}
		r6, ok6 := lt6Idx[k]
		r10, ok10 := lt10Idx[k]
		r3, ok3 := tpIdx[k]
		if !ok6 || !ok10 || !ok3 {
			continue
		}

		gp, _ := g.Float(model.ColGamesPlayed)
		minutes, _ := g.Float(model.ColMinutes)
		if !(gp > p.gpThreshold) || !(minutes > p.minThreshold) {
			continue
		}

		year, err := p.rule.Year(s)
		if err != nil {
			p.logger.Error(ctx, "error deriving season year", logger.String("season", s), logger.Error(err))
			return model.SeasonTable{}, err
		}

		values := make(map[string]float64, len(columns))
		for col, v := range g.Num {
			values[col] = v
		}
		merge(values, r6, lt6Projection)
		merge(values, r10, lt10Projection)
		merge(values, r3, threePointProjection)
		values[model.ColYear] = float64(year)

		name := g.String(model.ColPlayerName)
		if name == "" {
			name = r6.String(model.ColPlayerName)
		}
		rows = append(rows, model.PlayerSeason{
			PlayerID: id,
			Name:     name,
			Team:     g.String(model.ColTeamAbbrev),
			Position: r6.String(model.ColPlayerPosition),
			Season:   s,
			Year:     year,
			GP:       gp,
			Min:      minutes,
			Values:   values,
		})
		qualifying[s]++
	}

	for s, n := range qualifying {
		if n == 0 {
			p.logger.Error(ctx, "season has no qualifying players", logger.String("season", s))
			return model.SeasonTable{}, fmt.Errorf("%w: %s", ErrEmptySeason, s)
		}
	}
	if len(rows) == 0 {
		return model.SeasonTable{}, ErrEmptyResult
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	p.logger.Info(ctx, "preprocessing completed",
		logger.Int("rows", len(rows)),
		logger.Int("seasons", len(qualifying)),
	)
	return model.SeasonTable{NumericColumns: columns, Rows: rows}, nil
}

// numericColumns lists the merged table's numeric columns: general columns,
// then projected tracking columns, then Year.
func (p *Preprocessor) numericColumns(raw model.RawTables) []string {
	seen := make(map[string]struct{})
	var cols []string
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		cols = append(cols, c)
	}
	for _, c := range raw.General.Columns {
		if c.Numeric {
			add(c.Name)
		}
	}
	for _, pair := range []struct {
		t    model.RawTable
		proj projection
	}{
		{raw.LessThan6Ft, lt6Projection},
		{raw.LessThan10Ft, lt10Projection},
		{raw.ThreePoint, threePointProjection},
	} {
		for _, c := range pair.proj.cols {
			if col, ok := pair.t.Column(c); ok && col.Numeric {
				add(pair.proj.name(c))
			}
		}
	}
	add(model.ColYear)
	return cols
}

// merge copies projected columns into values. Existing names win.
func merge(values map[string]float64, r model.Row, proj projection) {
	for _, c := range proj.cols {
		v, ok := r.Float(c)
		if !ok {
			continue
		}
		name := proj.name(c)
		if _, exists := values[name]; exists {
			continue
		}
		values[name] = v
	}
}

// index maps (CLOSE_DEF_PERSON_ID, SEASON) to the first matching row.
func index(t model.RawTable) map[key]model.Row {
	out := make(map[key]model.Row, len(t.Rows))
	for _, r := range t.Rows {
		id, ok := r.ID(model.ColCloseDefID)
		if !ok {
			continue
		}
		k := key{PlayerID: id, Season: r.String(model.ColSeason)}
		if _, dup := out[k]; !dup {
			out[k] = r
		}
	}
	return out
}

func requireColumns(t model.RawTable, cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return fmt.Errorf("%w: %s.%s", ErrMissingColumn, t.Name, c)
		}
	}
	return nil
}
