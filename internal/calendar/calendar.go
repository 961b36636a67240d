// Package calendar provides the business-day arithmetic every scheduling
// computation is built on. All dates are normalized to date-only UTC so that
// identical inputs always produce identical schedules.
package calendar

import (
	"fmt"
	"time"
)

// Calendar defines which days are workdays. The zero value skips weekends;
// SaturdayOvertime adds Saturdays (overtime tiers flip this on).
type Calendar struct {
	SaturdayOvertime bool
}

// Normalize strips a timestamp down to its calendar date in UTC.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey returns the canonical map key for a calendar date.
func DateKey(t time.Time) string {
	return Normalize(t).Format("2006-01-02")
}

// SameDate reports whether a and b fall on the same calendar date,
// regardless of time-of-day or zone.
func SameDate(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// IsWorkday reports whether t is a working day under this calendar.
func (c Calendar) IsWorkday(t time.Time) bool {
	switch t.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return c.SaturdayOvertime
	}
	return true
}

// NextWorkday returns t if t is a workday, otherwise the first workday after t.
func (c Calendar) NextWorkday(t time.Time) time.Time {
	d := Normalize(t)
	for !c.IsWorkday(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevWorkday returns t if t is a workday, otherwise the last workday before t.
func (c Calendar) PrevWorkday(t time.Time) time.Time {
	d := Normalize(t)
	for !c.IsWorkday(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AddBusinessDays steps n workdays from t (negative n steps backward).
// t is normalized onto a workday first, in the direction of travel.
func (c Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	var d time.Time
	step := 1
	if n < 0 {
		step = -1
		n = -n
		d = c.PrevWorkday(t)
	} else {
		d = c.NextWorkday(t)
	}
	for i := 0; i < n; i++ {
		d = d.AddDate(0, 0, step)
		for !c.IsWorkday(d) {
			d = d.AddDate(0, 0, step)
		}
	}
	return d
}

// BusinessDaysBetween counts workdays strictly after from, up to and
// including to. Returns a negative count when to precedes from.
func (c Calendar) BusinessDaysBetween(from, to time.Time) int {
	a, b := Normalize(from), Normalize(to)
	if b.Before(a) {
		return -c.BusinessDaysBetween(to, from)
	}
	n := 0
	for d := a.AddDate(0, 0, 1); !d.After(b); d = d.AddDate(0, 0, 1) {
		if c.IsWorkday(d) {
			n++
		}
	}
	return n
}

// WorkdaysInWindow lists every workday from start through end inclusive.
func (c Calendar) WorkdaysInWindow(start, end time.Time) []time.Time {
	var days []time.Time
	for d := Normalize(start); !d.After(Normalize(end)); d = d.AddDate(0, 0, 1) {
		if c.IsWorkday(d) {
			days = append(days, d)
		}
	}
	return days
}

// WindowEnd returns the last day of a window that starts on start and spans
// the given number of workdays (days must be >= 1).
func (c Calendar) WindowEnd(start time.Time, days int) time.Time {
	return c.AddBusinessDays(start, days-1)
}

// WeekKey returns the ISO week bucket for t, e.g. "2026-W35".
func WeekKey(t time.Time) string {
	year, week := Normalize(t).ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
