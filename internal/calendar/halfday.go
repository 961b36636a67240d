package calendar

import "fmt"

// HalfDays is a duration measured in half-day increments. All duration math
// runs on this integer type; the half-day is the finest granularity the shop
// schedules to, and integer arithmetic keeps schedules bit-identical across
// platforms.
type HalfDays int

// CeilHalfDays divides numer by denom and rounds the result up to the nearest
// half day. denom must be positive.
func CeilHalfDays(numer, denom int64) HalfDays {
	if numer <= 0 {
		return 0
	}
	n := numer * 2
	return HalfDays((n + denom - 1) / denom)
}

// DaysCeil returns the number of whole calendar workdays the duration spans.
func (h HalfDays) DaysCeil() int {
	if h <= 0 {
		return 0
	}
	return int((h + 1) / 2)
}

// Whole reports whether the duration lands on a whole-day boundary.
func (h HalfDays) Whole() bool {
	return h%2 == 0
}

func (h HalfDays) String() string {
	if h%2 == 0 {
		return fmt.Sprintf("%dd", h/2)
	}
	return fmt.Sprintf("%d.5d", h/2)
}

// FromDays converts whole days to HalfDays.
func FromDays(d int) HalfDays {
	return HalfDays(d * 2)
}

// MaxHalfDays returns the larger of a and b.
func MaxHalfDays(a, b HalfDays) HalfDays {
	if a > b {
		return a
	}
	return b
}
