package dateutil

import (
	"fmt"
	"time"
)

// Layout is the only date format accepted at the boundary (YYYY-MM-DD)
const Layout = "2006-01-02"

// Date returns the civil date year-month-day at UTC midnight
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Civil drops the time-of-day and location, keeping the calendar date
func Civil(date time.Time) time.Time {
	return Date(date.Year(), date.Month(), date.Day())
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// DaysBetween returns the number of whole days from one civil date to another.
// Negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(Civil(to).Sub(Civil(from)).Hours() / 24)
}

// IsLeapYear reports whether year has a 29th of February
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// AnchorToYear moves a recurring month/day into the given year.
// 29 February becomes 28 February in non-leap years.
func AnchorToYear(date time.Time, year int) time.Time {
	if date.Month() == time.February && date.Day() == 29 && !IsLeapYear(year) {
		return Date(year, time.February, 28)
	}
	return Date(year, date.Month(), date.Day())
}

// ParseDate parses a YYYY-MM-DD string into a civil date
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(Layout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, nil
}

// FormatDate formats a date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(Layout)
}
