package availability

import (
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/pkg/dateutil"
)

// Count classifies every date of the range and tallies the result.
// It returns an *InvalidRangeError before counting when Since > Until.
func Count(r DateRange, national *calendar.National) (Tally, error) {
	if err := r.Validate(); err != nil {
		return Tally{}, err
	}

	var t Tally
	until := dateutil.Civil(r.Until)
	for current := dateutil.Civil(r.Since); !current.After(until); current = current.AddDate(0, 0, 1) {
		switch calendar.Classify(current, national) {
		case calendar.DayTypeWeekend:
			t.WeekendDays++
		case calendar.DayTypeHoliday:
			t.Holidays++
		default:
			t.Workdays++
		}
	}
	t.TotalDays = r.Days()

	return t, nil
}
