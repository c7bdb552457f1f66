package availability

import (
	"github.com/workcal/availability/internal/calendar"
)

// Aggregate counts r and applies every qualifying candidate to the result.
// Each qualifying candidate moves one day from Workdays to Holidays, even when
// two candidates resolve to the same date. Workdays is not clamped at zero.
func Aggregate(r DateRange, national *calendar.National, candidates []Candidate) (Tally, error) {
	base, err := Count(r, national)
	if err != nil {
		return Tally{}, err
	}
	return ApplyOverrides(base, r, national, candidates), nil
}

// ApplyOverrides adjusts an existing tally of r for the given candidates.
// The input tally is not modified.
func ApplyOverrides(base Tally, r DateRange, national *calendar.National, candidates []Candidate) Tally {
	t := base
	for _, c := range candidates {
		if c.Applies(r, national) {
			t = t.withOverride()
		}
	}
	return t
}
