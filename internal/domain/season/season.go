// Package season converts provider season identifiers ("2023-24") into the
// Year value used to pick the most recent seasons.
package season

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/defscout/internal/domain/model"
)

// DefaultCutoffMonth is the last month in which a season maps to its second
// year component.
const DefaultCutoffMonth = time.September

// ErrMalformed reports a season identifier that is not "YYYY-YY".
var ErrMalformed = fmt.Errorf("%w: malformed season", model.ErrInputData)

// Rule maps seasons to years. The reference clock is injected so identical
// input always maps to identical years.
type Rule struct {
	CutoffMonth time.Month
	Now         func() time.Time
}

// FixedRule returns a Rule pinned to ref.
func FixedRule(cutoff time.Month, ref time.Time) Rule {
	return Rule{CutoffMonth: cutoff, Now: func() time.Time { return ref }}
}

// Parse splits "2023-24" into its start and end years (2023, 2024).
func Parse(s string) (start, end int, err error) {
	first, second, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || len(first) != 4 || len(second) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	start, err = strconv.Atoi(first)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	suffix, err := strconv.Atoi(second)
	if err != nil || suffix != (start+1)%100 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return start, start + 1, nil
}

// Date anchors the season to July 1 of the year selected by the rule: the
// second year component when the reference month is at or before the cutoff,
// the first one otherwise.
func (r Rule) Date(s string) (time.Time, error) {
	start, end, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	year := start
	if r.now().Month() <= r.cutoff() {
		year = end
	}
	return time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC), nil
}

// Year returns Date(s).Year().
func (r Rule) Year(s string) (int, error) {
	d, err := r.Date(s)
	if err != nil {
		return 0, err
	}
	return d.Year(), nil
}

func (r Rule) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r Rule) cutoff() time.Month {
	if r.CutoffMonth < time.January || r.CutoffMonth > time.December {
		return DefaultCutoffMonth
	}
	return r.CutoffMonth
}
