package availability_test

import (
	"time"

	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/pkg/dateutil"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(s string) time.Time {
	d, err := dateutil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func span(since, until string) availability.DateRange {
	return availability.NewDateRange(day(since), day(until))
}

// nationalFixture holds the single national holiday used by the scenarios.
func nationalFixture() *calendar.National {
	return calendar.NewNational(day("2017-01-01"))
}

// italy2017 is the Italian national holiday list for 2017.
func italy2017() *calendar.National {
	var dates []time.Time
	for _, s := range []string{
		"2017-01-01", "2017-01-06", "2017-04-16", "2017-04-17", "2017-04-25", "2017-05-01",
		"2017-06-02", "2017-08-15", "2017-11-01", "2017-12-08", "2017-12-25", "2017-12-26",
	} {
		dates = append(dates, day(s))
	}
	return calendar.NewNational(dates...)
}

func local(s string) availability.LocalHoliday {
	return availability.LocalHoliday{Day: day(s)}
}

func developer(id int, birthday string) availability.Developer {
	return availability.Developer{ID: id, Birthday: day(birthday)}
}
