package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/workcal/availability/pkg/dateutil"
)

// DayType represents the type of day
type DayType int

const (
	DayTypeWorkday DayType = iota + 1
	DayTypeWeekend
	DayTypeHoliday
)

func (t DayType) String() string {
	switch t {
	case DayTypeWorkday:
		return "workday"
	case DayTypeWeekend:
		return "weekend"
	case DayTypeHoliday:
		return "national-holiday"
	default:
		return "unknown"
	}
}

// Holiday is a single national holiday entry
type Holiday struct {
	Date time.Time
	Name string
}

// National is the run-scoped set of national holiday dates.
// It is immutable once built.
type National struct {
	days map[string]Holiday // key: "YYYY-MM-DD"
}

// NewNational builds a calendar from plain dates
func NewNational(dates ...time.Time) *National {
	holidays := make([]Holiday, 0, len(dates))
	for _, d := range dates {
		holidays = append(holidays, Holiday{Date: d})
	}
	return NewNationalFromHolidays(holidays...)
}

// NewNationalFromHolidays builds a calendar from named holidays.
// On duplicate dates the first non-empty name wins.
func NewNationalFromHolidays(holidays ...Holiday) *National {
	n := &National{days: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		n.add(h)
	}
	return n
}

func (n *National) add(h Holiday) {
	key := dateutil.FormatDate(h.Date)
	if existing, ok := n.days[key]; ok && existing.Name != "" {
		return
	}
	n.days[key] = Holiday{Date: dateutil.Civil(h.Date), Name: h.Name}
}

// Contains reports whether the civil date of t is a national holiday
func (n *National) Contains(date time.Time) bool {
	if n == nil {
		return false
	}
	_, ok := n.days[dateutil.FormatDate(date)]
	return ok
}

// Name returns the holiday name for the date, if known
func (n *National) Name(date time.Time) string {
	if n == nil {
		return ""
	}
	return n.days[dateutil.FormatDate(date)].Name
}

// Len returns the number of distinct holiday dates
func (n *National) Len() int {
	if n == nil {
		return 0
	}
	return len(n.days)
}

// Holidays returns all entries sorted by date
func (n *National) Holidays() []Holiday {
	if n == nil {
		return nil
	}
	out := make([]Holiday, 0, len(n.days))
	for _, h := range n.days {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Merge returns a new calendar holding the union of the given calendars
func Merge(calendars ...*National) *National {
	merged := &National{days: make(map[string]Holiday)}
	for _, c := range calendars {
		for _, h := range c.Holidays() {
			merged.add(h)
		}
	}
	return merged
}

// Classify returns the type of a single day.
// Weekends take precedence over national holidays.
func Classify(date time.Time, national *National) DayType {
	if dateutil.IsWeekend(date) {
		return DayTypeWeekend
	}
	if national.Contains(date) {
		return DayTypeHoliday
	}
	return DayTypeWorkday
}

// Source loads a national holiday calendar
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Load builds the calendar
	Load(ctx context.Context) (*National, error)
}
