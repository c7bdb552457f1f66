package availability

import (
	"time"

	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/pkg/dateutil"
)

// CandidateKind tells how a candidate date is derived for a range
type CandidateKind int

const (
	// KindLocalHoliday candidates are fixed calendar dates
	KindLocalHoliday CandidateKind = iota + 1
	// KindBirthday candidates recur every year on the same month/day
	KindBirthday
)

func (k CandidateKind) String() string {
	switch k {
	case KindLocalHoliday:
		return "local-holiday"
	case KindBirthday:
		return "birthday"
	default:
		return "unknown"
	}
}

// Candidate is a date that may turn one workday of a range into a holiday
type Candidate struct {
	Date time.Time
	Kind CandidateKind
}

// LocalHolidayCandidate wraps a local holiday
func LocalHolidayCandidate(h LocalHoliday) Candidate {
	return Candidate{Date: h.Day, Kind: KindLocalHoliday}
}

// LocalHolidayCandidates wraps local holidays, preserving order
func LocalHolidayCandidates(holidays []LocalHoliday) []Candidate {
	out := make([]Candidate, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, LocalHolidayCandidate(h))
	}
	return out
}

// BirthdayCandidate wraps a developer's birthday
func BirthdayCandidate(d Developer) Candidate {
	return Candidate{Date: d.Birthday, Kind: KindBirthday}
}

// Resolve returns the concrete date the candidate stands for within r.
// Birthdays are re-anchored to the year of r.Since on every call.
func (c Candidate) Resolve(r DateRange) time.Time {
	if c.Kind == KindBirthday {
		return dateutil.AnchorToYear(c.Date, r.Since.Year())
	}
	return dateutil.Civil(c.Date)
}

// Applies reports whether the candidate reclassifies a workday of r
func (c Candidate) Applies(r DateRange, national *calendar.National) bool {
	return AppliesAsWorkdayOverride(c.Resolve(r), r, national)
}

// AppliesAsWorkdayOverride reports whether date falls inside r, on a weekday,
// and is not already a national holiday.
func AppliesAsWorkdayOverride(date time.Time, r DateRange, national *calendar.National) bool {
	if !r.Contains(date) {
		return false
	}
	if !dateutil.IsWeekday(date) {
		return false
	}
	return !national.Contains(date)
}
