package nbastats

import "net/url"

// Endpoint is a provider resource path.
type Endpoint string

// Provider endpoints used by the pipeline.
const (
	EndpointPlayerStats Endpoint = "leaguedashplayerstats"
	EndpointPTDefend    Endpoint = "leaguedashptdefend"
	EndpointAllPlayers  Endpoint = "commonallplayers"
)

// DefenseCategory selects a tracking defense split.
type DefenseCategory string

// Tracking categories merged by the pipeline.
const (
	LessThan6Ft  DefenseCategory = "Less Than 6Ft"
	LessThan10Ft DefenseCategory = "Less Than 10Ft"
	ThreePointer DefenseCategory = "3 Pointers"
)

const (
	leagueNBA     = "00"
	regularSeason = "Regular Season"
	perGame       = "PerGame"
)

// dashboardFilters are the filter parameters the dashboards require to be
// present, even when empty.
func dashboardFilters(season string) url.Values {
	v := url.Values{}
	for _, k := range []string{
		"College", "Conference", "Country", "DateFrom", "DateTo", "Division",
		"DraftPick", "DraftYear", "GameSegment", "Height", "Location", "Outcome",
		"PlayerExperience", "PlayerPosition", "SeasonSegment", "StarterBench",
		"VsConference", "VsDivision", "Weight",
	} {
		v.Set(k, "")
	}
	for _, k := range []string{"LastNGames", "Month", "OpponentTeamID", "PORound", "Period", "TeamID"} {
		v.Set(k, "0")
	}
	v.Set("LeagueID", leagueNBA)
	v.Set("PerMode", perGame)
	v.Set("Season", season)
	v.Set("SeasonType", regularSeason)
	return v
}

func generalParams(season string) url.Values {
	v := dashboardFilters(season)
	v.Set("MeasureType", "Defense")
	v.Set("PaceAdjust", "N")
	v.Set("PlusMinus", "N")
	v.Set("Rank", "N")
	v.Set("GameScope", "")
	v.Set("ShotClockRange", "")
	v.Set("TwoWay", "0")
	return v
}

func trackingParams(season string, category DefenseCategory) url.Values {
	v := dashboardFilters(season)
	v.Set("DefenseCategory", string(category))
	return v
}

func playersParams(season string) url.Values {
	v := url.Values{}
	v.Set("LeagueID", leagueNBA)
	v.Set("Season", season)
	v.Set("IsOnlyCurrentSeason", "0")
	return v
}
