package utils

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

// DateKey formats a time as the calendar-date key used by daily counters
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
