package availability

import (
	"github.com/shopspring/decimal"
	"github.com/workcal/availability/internal/calendar"
)

// IsFeasible reports whether the summed workdays cover the required effort
func IsFeasible(perDeveloperWorkdays []int, requiredEffortDays int) bool {
	return sumInts(perDeveloperWorkdays) >= requiredEffortDays
}

// DeveloperContributions returns, per developer and in input order, the
// workdays each one brings to r: the shared base minus their own birthday
// when it qualifies.
func DeveloperContributions(base Tally, r DateRange, national *calendar.National, developers []Developer) []int {
	out := make([]int, 0, len(developers))
	for _, d := range developers {
		w := base.Workdays
		if BirthdayCandidate(d).Applies(r, national) {
			w--
		}
		out = append(out, w)
	}
	return out
}

// ProjectCapacity summarizes the feasibility computation of one project
type ProjectCapacity struct {
	ProjectID     int   `json:"project_id"`
	Contributions []int `json:"contributions"`
	CapacityDays  int   `json:"capacity_days"`
	EffortDays    int   `json:"effort_days"`
	Feasible      bool  `json:"feasible"`
}

// Coverage is CapacityDays / EffortDays. A project without effort is fully covered.
func (c ProjectCapacity) Coverage() decimal.Decimal {
	if c.EffortDays <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(c.CapacityDays)).
		DivRound(decimal.NewFromInt(int64(c.EffortDays)), 4)
}

// Shortfall is how many workdays are missing, zero when feasible
func (c ProjectCapacity) Shortfall() int {
	if c.CapacityDays >= c.EffortDays {
		return 0
	}
	return c.EffortDays - c.CapacityDays
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
