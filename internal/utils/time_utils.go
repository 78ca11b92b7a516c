package utils

import (
	"time"
)

// Day helpers for the valuation timeline. Transactions carry full wall-clock
// timestamps but valuation works at day granularity, in the timestamp's own
// location.

// DayOf truncates a time to midnight of its calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last second of the calendar day containing t.
func EndOfDay(t time.Time) time.Time {
	return DayOf(t).Add(24*time.Hour - time.Second)
}

// NextDay returns midnight of the day after t.
func NextDay(t time.Time) time.Time {
	return DayOf(t).AddDate(0, 0, 1)
}

// OnOrBeforeDay reports whether t falls on the calendar day of day or any
// earlier day.
func OnOrBeforeDay(t, day time.Time) bool {
	return !DayOf(t).After(DayOf(day))
}
