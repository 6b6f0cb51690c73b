package behavior

import "time"

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "New Year's Day"},
	{time.June, 19, "Juneteenth"},
	{time.July, 4, "Independence Day"},
	{time.November, 11, "Veterans Day"},
	{time.December, 24, "Christmas Eve"},
	{time.December, 25, "Christmas Day"},
	{time.December, 31, "New Year's Eve"},
}

// IsHoliday reports whether the given date is a US sending holiday and
// which one. Floating holidays follow nth-weekday-of-month rules.
func IsHoliday(t time.Time) (bool, string) {
	for _, h := range fixedHolidays {
		if t.Month() == h.month && t.Day() == h.day {
			return true, h.name
		}
	}

	year := t.Year()

	switch {
	case sameDate(t, findNthWeekdayInMonth(year, time.January, time.Monday, 3)):
		return true, "Martin Luther King Jr. Day"
	case sameDate(t, findNthWeekdayInMonth(year, time.February, time.Monday, 3)):
		return true, "Presidents' Day"
	case sameDate(t, findLastWeekdayInMonth(year, time.May, time.Monday)):
		return true, "Memorial Day"
	case sameDate(t, findNthWeekdayInMonth(year, time.September, time.Monday, 1)):
		return true, "Labor Day"
	}

	thanksgiving := findNthWeekdayInMonth(year, time.November, time.Thursday, 4)
	if sameDate(t, thanksgiving) {
		return true, "Thanksgiving"
	}
	if sameDate(t, thanksgiving.AddDate(0, 0, 1)) {
		return true, "Day After Thanksgiving"
	}

	return false, ""
}

func sameDate(a, b time.Time) bool {
	return a.Month() == b.Month() && a.Day() == b.Day()
}

// findNthWeekdayInMonth returns the nth occurrence of a weekday in the
// given month, e.g. the 3rd Monday of January.
func findNthWeekdayInMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for t.Weekday() != weekday {
		t = t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 0, (n-1)*7)
}

func findLastWeekdayInMonth(year int, month time.Month, weekday time.Weekday) time.Time {
	// Last day of month, then walk back to the weekday
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for t.Weekday() != weekday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}
