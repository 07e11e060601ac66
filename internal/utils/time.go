package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/constants"
)

// Day returns the civil date of t, taken in t's own location, as midnight UTC.
// Every calendar comparison in tally goes through this helper so that two
// values describing the same calendar day are always equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a day value from its civil components.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddDays steps a day value forward (or backward for negative n).
func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DayKey formats a day as YYYY-MM-DD. Used as a map key for per-day indices.
func DayKey(t time.Time) string {
	return Day(t).Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD string into a day value.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return Day(t), nil
}

// ISOWeekday returns the ISO-8601 weekday number (Monday=1 .. Sunday=7).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Today returns the current civil date in the given location.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Day(time.Now().In(loc))
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
