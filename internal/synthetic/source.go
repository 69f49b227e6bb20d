// Package synthetic generates provider-shaped raw tables offline. Output
// depends only on the seed, the population size and the requested season,
// so runs are reproducible regardless of fetch order.
package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/okian/defscout/internal/adapters/nbastats"
	"github.com/okian/defscout/internal/domain/model"
)

// Default generator settings.
const (
	DefaultPlayers = 60
	DefaultSeed    = 7

	firstPlayerID = 1_630_000
	seasonGames   = 82
	// benchEvery marks every n-th player as a low-minutes reserve.
	benchEvery = 9
)

var (
	positions  = []string{"G", "G", "F", "F", "C", "G-F", "F-C"}
	teams      = []string{"BOS", "DEN", "MIL", "OKC", "MIN", "NYK", "LAL", "PHX", "MIA", "SAC"}
	firstNames = []string{"Jalen", "Marcus", "Tyrese", "Evan", "Derrick", "Isaiah", "Andre", "Kris", "Luka", "Bam", "Rudy", "Mikal"}
	lastNames  = []string{"Walker", "Brooks", "Holiday", "Mobley", "White", "Caruso", "Thompson", "Jackson", "Adams", "Bridges", "Green", "Allen"}
)

type profile struct {
	id       int64
	name     string
	team     string
	position string
	// skill is the latent defensive quality in [-1, 1].
	skill float64
	bench bool
}

// Source implements the fetch provider contract with generated data.
type Source struct {
	players int
	seed    int64
	pool    []profile
}

// New creates a Source.
func New(opts ...Option) *Source {
	s := &Source{players: DefaultPlayers, seed: DefaultSeed}
	for _, opt := range opts {
		opt(s)
	}
	rng := rand.New(rand.NewSource(s.seed)) //nolint:gosec // reproducible test data
	s.pool = make([]profile, s.players)
	for i := range s.pool {
		s.pool[i] = profile{
			id:       firstPlayerID + int64(i),
			name:     firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			team:     teams[rng.Intn(len(teams))],
			position: positions[rng.Intn(len(positions))],
			skill:    rng.Float64()*2 - 1,
			bench:    i%benchEvery == benchEvery-1,
		}
	}
	return s
}

// rng returns a generator private to (season, table).
func (s *Source) rng(season, table string) *rand.Rand {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d/%s/%s", s.seed, season, table)
	return rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // reproducible test data
}

// General implements the provider contract.
func (s *Source) General(ctx context.Context, season string) (model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return model.RawTable{}, err
	}
	rng := s.rng(season, "general")
	t := model.RawTable{Name: "general", Columns: columns(
		[]string{model.ColPlayerName, "NICKNAME", model.ColTeamAbbrev},
		[]string{model.ColPlayerID, "TEAM_ID", "AGE", model.ColGamesPlayed, "W", "L", "W_PCT", model.ColMinutes,
			"DEF_RATING", "DREB", "DREB_PCT", "PCT_DREB", "STL", "PCT_STL", "BLK", "PCT_BLK",
			"OPP_PTS_OFF_TOV", "OPP_PTS_2ND_CHANCE", "OPP_PTS_FB", "OPP_PTS_PAINT", "DEF_WS",
			"GP_RANK", "DEF_RATING_RANK", "STL_RANK"},
	)}
	for i, p := range s.pool {
		gp := 30 + rng.Float64()*(seasonGames-30)
		mins := 16 + rng.Float64()*20
		if p.bench {
			gp, mins = 8+rng.Float64()*10, 6+rng.Float64()*5
		}
		gp = math.Round(gp)
		wins := math.Round(gp * (0.3 + 0.4*rng.Float64()))
		big := bigness(p.position)

		r := model.NewRow()
		r.Str[model.ColPlayerName] = p.name
		r.Str["NICKNAME"] = p.name
		r.Str[model.ColTeamAbbrev] = p.team
		r.Num[model.ColPlayerID] = float64(p.id)
		r.Num["TEAM_ID"] = float64(1_610_612_737 + indexOf(teams, p.team))
		r.Num["AGE"] = float64(20 + rng.Intn(15))
		r.Num[model.ColGamesPlayed] = gp
		r.Num["W"] = wins
		r.Num["L"] = gp - wins
		r.Num["W_PCT"] = round(wins/gp, 3)
		r.Num[model.ColMinutes] = round(mins, 1)
		r.Num["DEF_RATING"] = round(113-4*p.skill+noise(rng, 2), 1)
		r.Num["DREB"] = round(2+4*big+p.skill+noise(rng, 0.5), 1)
		r.Num["DREB_PCT"] = round(0.1+0.15*big+noise(rng, 0.02), 3)
		r.Num["PCT_DREB"] = round(0.12+0.2*big+noise(rng, 0.03), 3)
		r.Num["STL"] = round(math.Max(0.1, 0.8+0.5*p.skill*(1-big)+noise(rng, 0.2)), 1)
		r.Num["PCT_STL"] = round(0.15+0.1*p.skill+noise(rng, 0.03), 3)
		r.Num["BLK"] = round(math.Max(0, 0.3+1.5*big+0.4*p.skill+noise(rng, 0.2)), 1)
		r.Num["PCT_BLK"] = round(0.1+0.3*big+noise(rng, 0.05), 3)
		r.Num["OPP_PTS_OFF_TOV"] = round(2.5-0.6*p.skill+noise(rng, 0.4), 1)
		r.Num["OPP_PTS_2ND_CHANCE"] = round(2.0-0.4*p.skill+noise(rng, 0.4), 1)
		r.Num["OPP_PTS_FB"] = round(2.2-0.5*p.skill+noise(rng, 0.4), 1)
		r.Num["OPP_PTS_PAINT"] = round(8-1.5*p.skill+noise(rng, 1), 1)
		r.Num["DEF_WS"] = round(math.Max(0, 1.5+1.5*p.skill+noise(rng, 0.4)), 3)
		r.Num["GP_RANK"] = float64(i + 1)
		r.Num["DEF_RATING_RANK"] = float64(i + 1)
		r.Num["STL_RANK"] = float64(len(s.pool) - i)
		t.Rows = append(t.Rows, r)
	}
	return tag(t, season), nil
}

// Tracking implements the provider contract.
func (s *Source) Tracking(ctx context.Context, season string, category nbastats.DefenseCategory) (model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return model.RawTable{}, err
	}
	var (
		name    string
		metrics []string
		base    float64
	)
	switch category {
	case nbastats.LessThan6Ft:
		name, metrics, base = "less_than_6ft", []string{"FGM_LT_06", "FGA_LT_06", "LT_06_PCT", "NS_LT_06_PCT"}, 0.62
	case nbastats.LessThan10Ft:
		name, metrics, base = "less_than_10ft", []string{"FGM_LT_10", "FGA_LT_10", "LT_10_PCT", "NS_LT_10_PCT"}, 0.58
	case nbastats.ThreePointer:
		name, metrics, base = "three_point", []string{"FG3M", "FG3A", "FG3_PCT", "NS_FG3_PCT"}, 0.36
	default:
		return model.RawTable{}, fmt.Errorf("%w: unknown defense category %q", model.ErrExternalFetch, category)
	}

	rng := s.rng(season, name)
	t := model.RawTable{Name: name, Columns: columns(
		[]string{model.ColPlayerName, "PLAYER_LAST_TEAM_ABBREVIATION", model.ColPlayerPosition},
		append([]string{model.ColCloseDefID, "AGE", model.ColGamesPlayed, "FREQ"}, append(metrics, "PLUSMINUS")...),
	)}
	for _, p := range s.pool {
		attempts := round(2+3*bigness(p.position)+noise(rng, 0.5), 1)
		pct := clamp(base-0.05*p.skill+noise(rng, 0.03), 0.2, 0.8)
		r := model.NewRow()
		r.Str[model.ColPlayerName] = p.name
		r.Str["PLAYER_LAST_TEAM_ABBREVIATION"] = p.team
		r.Str[model.ColPlayerPosition] = p.position
		r.Num[model.ColCloseDefID] = float64(p.id)
		r.Num["AGE"] = float64(20 + rng.Intn(15))
		r.Num[model.ColGamesPlayed] = float64(20 + rng.Intn(seasonGames-20))
		r.Num["FREQ"] = round(0.1+0.2*rng.Float64(), 3)
		r.Num[metrics[0]] = round(attempts*pct, 1)
		r.Num[metrics[1]] = attempts
		r.Num[metrics[2]] = round(pct, 3)
		r.Num[metrics[3]] = round(base, 3)
		r.Num["PLUSMINUS"] = round(pct-base, 3)
		t.Rows = append(t.Rows, r)
	}
	return tag(t, season), nil
}

// Players implements the provider contract.
func (s *Source) Players(ctx context.Context, _ string) ([]model.PlayerIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.PlayerIdentity, len(s.pool))
	for i, p := range s.pool {
		out[i] = model.PlayerIdentity{PlayerID: p.id, Name: p.name}
	}
	return out, nil
}

func columns(strs, nums []string) []model.Column {
	out := make([]model.Column, 0, len(strs)+len(nums))
	for _, n := range nums {
		out = append(out, model.Column{Name: n, Numeric: true})
	}
	for _, s := range strs {
		out = append(out, model.Column{Name: s})
	}
	return out
}

func tag(t model.RawTable, season string) model.RawTable {
	t.Columns = append(t.Columns, model.Column{Name: model.ColSeason})
	for _, r := range t.Rows {
		r.Str[model.ColSeason] = season
	}
	return t
}

// bigness maps a position to how much of a rim protector it is, in [0, 1].
func bigness(position string) float64 {
	switch position {
	case "C":
		return 1
	case "F-C":
		return 0.8
	case "F":
		return 0.5
	case "G-F":
		return 0.25
	default:
		return 0
	}
}

func noise(rng *rand.Rand, scale float64) float64 {
	return rng.NormFloat64() * scale
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
