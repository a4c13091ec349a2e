package calendar

import (
	"errors"
	"time"
)

// Frequency values for recurring obligations
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

var validFrequencies = map[string]struct{}{
	FrequencyDaily:   {},
	FrequencyWeekly:  {},
	FrequencyMonthly: {},
	FrequencyYearly:  {},
}

// Domain errors
var (
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// IsValidFrequency checks if the provided frequency is valid
func IsValidFrequency(f string) bool {
	_, ok := validFrequencies[f]
	return ok
}

// DateOnly truncates a timestamp to its calendar date at UTC midnight.
// All due-date arithmetic in the scheduler operates on date-only values.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextOccurrence computes the next due date after anchor for the given
// frequency. Monthly steps keep the anchor's day-of-month, clipping to the
// last day of shorter months instead of rolling into the following month
// (Jan 31 -> Feb 28/29). Yearly steps clip Feb 29 anchors to Feb 28 in
// non-leap years.
//
// The second return value is false when the computed date would exceed end,
// meaning the schedule has no further occurrences.
func NextOccurrence(anchor time.Time, frequency string, end *time.Time) (time.Time, bool) {
	anchor = DateOnly(anchor)

	var next time.Time
	switch frequency {
	case FrequencyDaily:
		next = anchor.AddDate(0, 0, 1)
	case FrequencyWeekly:
		next = anchor.AddDate(0, 0, 7)
	case FrequencyMonthly:
		next = addMonthClipped(anchor, 1)
	case FrequencyYearly:
		next = addYearClipped(anchor, 1)
	default:
		return time.Time{}, false
	}

	if end != nil && next.After(DateOnly(*end)) {
		return time.Time{}, false
	}

	return next, true
}

// addMonthClipped adds months to a date, clipping the day-of-month to the
// length of the target month. time.AddDate normalizes overflow (Jan 31 + 1
// month = Mar 3), which is exactly the behavior we must avoid.
func addMonthClipped(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	// First day of the target month, then clip the day.
	firstOfTarget := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	ty, tm, _ := firstOfTarget.Date()

	last := daysInMonth(ty, tm)
	if d > last {
		d = last
	}

	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC)
}

// addYearClipped adds years to a date, clipping Feb 29 to Feb 28 when the
// target year is not a leap year.
func addYearClipped(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	ty := y + years

	last := daysInMonth(ty, m)
	if d > last {
		d = last
	}

	return time.Date(ty, m, d, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
