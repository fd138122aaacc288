package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRecurrence = errors.New("model: invalid recurrence pattern")

type RecurrencePattern string

const (
	RecurrenceOnce     RecurrencePattern = "once"
	RecurrenceDaily    RecurrencePattern = "daily"
	RecurrenceWeekdays RecurrencePattern = "weekdays"
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
	RecurrenceYearly   RecurrencePattern = "yearly"
)

func (p RecurrencePattern) IsValid() bool {
	switch p {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekdays, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

func ParseRecurrence(raw string) (RecurrencePattern, error) {
	p := RecurrencePattern(raw)
	if raw == "" {
		return RecurrenceOnce, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, raw)
	}
	return p, nil
}

// Advance returns the next occurrence after from. It reports false for
// RecurrenceOnce and unknown patterns. The clock time of from is kept; month
// and year steps clamp the day to the end of the target month.
func (p RecurrencePattern) Advance(from time.Time) (time.Time, bool) {
	switch p {
	case RecurrenceDaily:
		return from.AddDate(0, 0, 1), true
	case RecurrenceWeekdays:
		next := from.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next, true
	case RecurrenceWeekly:
		return from.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		y, m, _ := from.Date()
		if m == time.December {
			return withClampedDay(from, y+1, time.January), true
		}
		return withClampedDay(from, y, m+1), true
	case RecurrenceYearly:
		y, m, _ := from.Date()
		return withClampedDay(from, y+1, m), true
	default:
		return time.Time{}, false
	}
}

func withClampedDay(from time.Time, year int, month time.Month) time.Time {
	day := from.Day()
	if last := daysIn(year, month, from.Location()); day > last {
		day = last
	}
	return time.Date(year, month, day, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
