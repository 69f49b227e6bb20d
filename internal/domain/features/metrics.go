// Package features derives the normalized comparative defensive features:
// multi-season averages, global and positional baselines, difference columns
// and their population-relative normalization.
package features

import (
	"strings"

	"github.com/okian/defscout/internal/domain/model"
)

// DefaultExcludedColumns are numeric columns that describe the player or the
// sample rather than defensive performance.
var DefaultExcludedColumns = []string{
	"PLAYER_ID", "PLAYER_NAME", "NICKNAME",
	"TEAM_ID", "TEAM_ABBREVIATION", "AGE",
	"GP", "W", "L", "W_PCT", "MIN",
	"SEASON", "CLOSE_DEF_PERSON_ID",
	"PLAYER_POSITION_general", "PLAYER_POSITION_from_point",
	"PLAYER_POSITION", "Year",
	"FGM_LT_10", "FGA_LT_10", "FG3M", "FG3A",
	"PCT_PLUSMINUS", "PLUSMINUS_from_point", "PLUSMINUS_three_point",
	"FGM_LT_06", "FGA_LT_06",
}

// DefaultLowerIsBetter lists metrics where a lower raw value is the better
// defensive outcome.
var DefaultLowerIsBetter = []string{
	"DEF_RATING", "OPP_PTS_OFF_TOV", "OPP_PTS_2ND_CHANCE",
	"OPP_PTS_FB", "OPP_PTS_PAINT",
	"D_FG_PCT", "LT_06_PCT", "LT_10_PCT", "NS_LT_10_PCT",
	"NORMAL_FG_PCT", "FG3_PCT", "NS_FG3_PCT", "FGM_LT_10",
}

const rankSuffix = "_RANK"

// DiscoverMetrics selects every numeric column of t that is neither excluded
// nor a rank column. The result keeps the table's column order.
func DiscoverMetrics(t model.SeasonTable, excluded []string) (model.MetricSet, error) {
	skip := make(map[string]struct{}, len(excluded))
	for _, c := range excluded {
		skip[c] = struct{}{}
	}
	var names []string
	for _, c := range t.NumericColumns {
		if _, ok := skip[c]; ok || strings.HasSuffix(c, rankSuffix) {
			continue
		}
		names = append(names, c)
	}
	if len(names) == 0 {
		return model.MetricSet{}, ErrNoMetrics
	}
	return model.NewMetricSet(names...)
}
