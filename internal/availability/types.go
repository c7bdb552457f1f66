// Package availability classifies and counts days over date ranges, applies
// local-holiday and birthday overrides, and evaluates project feasibility.
//
// Every operation is a pure function of its arguments. The national holiday
// calendar is always passed in explicitly; nothing is cached between calls.
package availability

import (
	"encoding/json"
	"time"

	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/pkg/dateutil"
)

// DateRange is an inclusive interval of civil dates [Since, Until]
type DateRange struct {
	Since time.Time
	Until time.Time
}

// NewDateRange builds a range from two dates, dropping any time of day
func NewDateRange(since, until time.Time) DateRange {
	return DateRange{Since: dateutil.Civil(since), Until: dateutil.Civil(until)}
}

// Validate returns an *InvalidRangeError when Since is after Until
func (r DateRange) Validate() error {
	if dateutil.Civil(r.Since).After(dateutil.Civil(r.Until)) {
		return &InvalidRangeError{Since: r.Since, Until: r.Until}
	}
	return nil
}

// Contains reports whether date lies within the range, both ends included
func (r DateRange) Contains(date time.Time) bool {
	d := dateutil.Civil(date)
	return !d.Before(dateutil.Civil(r.Since)) && !d.After(dateutil.Civil(r.Until))
}

// Days returns the inclusive length of the range
func (r DateRange) Days() int {
	return dateutil.DaysBetween(r.Since, r.Until) + 1
}

func (r DateRange) String() string {
	return "[" + dateutil.FormatDate(r.Since) + ", " + dateutil.FormatDate(r.Until) + "]"
}

// MarshalJSON renders the range with YYYY-MM-DD bounds
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Since string `json:"since"`
		Until string `json:"until"`
	}{dateutil.FormatDate(r.Since), dateutil.FormatDate(r.Until)})
}

// LocalHoliday is a one-off day off that applies to every range containing it
type LocalHoliday struct {
	Day time.Time
}

// Developer is a member of the developer pool.
// Only the month and day of Birthday are meaningful.
type Developer struct {
	ID       int
	Name     string
	Birthday time.Time
}

// Period is a reporting window without effort requirement
type Period struct {
	ID    int
	Since time.Time
	Until time.Time
}

// Range returns the period window
func (p Period) Range() DateRange { return NewDateRange(p.Since, p.Until) }

// Project is a reporting window with a required workday budget
type Project struct {
	ID         int
	Since      time.Time
	Until      time.Time
	EffortDays int
}

// Range returns the project window
func (p Project) Range() DateRange { return NewDateRange(p.Since, p.Until) }

// Tally holds the day counts of one range.
// TotalDays always equals Workdays + WeekendDays + Holidays.
type Tally struct {
	TotalDays   int `json:"total_days"`
	Workdays    int `json:"workdays"`
	WeekendDays int `json:"weekend_days"`
	Holidays    int `json:"holidays"`
}

// Balanced reports whether workdays, weekend days and holidays add up to TotalDays
func (t Tally) Balanced() bool {
	return t.Workdays+t.WeekendDays+t.Holidays == t.TotalDays
}

// withOverride moves one workday to the holiday column
func (t Tally) withOverride() Tally {
	t.Workdays--
	t.Holidays++
	return t
}

// Record is one availability output row. Which identifiers are set depends
// on the reporting mode; Feasibility is only set for projects.
type Record struct {
	DeveloperID *int `json:"developer_id,omitempty"`
	PeriodID    *int `json:"period_id,omitempty"`
	ProjectID   *int `json:"project_id,omitempty"`
	Tally
	Feasibility *bool `json:"feasibility,omitempty"`
}

// Input is the already-parsed data a run works on
type Input struct {
	National      *calendar.National
	Periods       []Period
	Projects      []Project
	Developers    []Developer
	LocalHolidays []LocalHoliday
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
