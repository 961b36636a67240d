package capacity

import (
	"time"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
)

type dayKey struct {
	dept constants.Department
	date string
}

type weekPoolKey struct {
	dept constants.Department
	pool int
	week string
}

// Reservation is a proposed (or committed) block of work: one department,
// a contiguous run of business days, and a total point load spread across
// them.
type Reservation struct {
	Department  constants.Department
	Start       time.Time
	Days        int // business days, >= 1
	TotalCp     int64
	ProductType constants.ProductType
	JobID       string
}

// Ledger tracks consumed capacity per department-day, per pool-week, and per
// big-rock concurrency slot. A scheduling run builds one fresh from the
// committed job set; it is never shared between runs.
type Ledger struct {
	model *Model
	cal   calendar.Calendar

	daily  map[dayKey]int64
	weekly map[weekPoolKey]int64

	rockLoad map[dayKey]int64
	rockJobs map[dayKey]map[string]struct{}
}

// NewLedger creates an empty ledger over the given model and calendar.
func NewLedger(model *Model, cal calendar.Calendar) *Ledger {
	return &Ledger{
		model:    model,
		cal:      cal,
		daily:    make(map[dayKey]int64),
		weekly:   make(map[weekPoolKey]int64),
		rockLoad: make(map[dayKey]int64),
		rockJobs: make(map[dayKey]map[string]struct{}),
	}
}

// perDayLoads apportions the reservation's total across its business days.
// The integer remainder lands on the first day so totals are conserved.
func (r *Reservation) perDayLoads() []int64 {
	if r.Days <= 0 {
		return nil
	}
	loads := make([]int64, r.Days)
	base := r.TotalCp / int64(r.Days)
	rem := r.TotalCp % int64(r.Days)
	for i := range loads {
		loads[i] = base
	}
	loads[0] += rem
	return loads
}

// businessDays returns the calendar dates the reservation occupies.
func (l *Ledger) businessDays(r Reservation) []time.Time {
	days := make([]time.Time, 0, r.Days)
	d := l.cal.NextWorkday(r.Start)
	for i := 0; i < r.Days; i++ {
		days = append(days, d)
		d = l.cal.AddBusinessDays(d, 1)
	}
	return days
}

// CanFit checks every business day of the proposed block against the daily
// department cap, the weekly pool cap, and (for big rocks) the concurrency
// constraints. It has no side effects.
func (l *Ledger) CanFit(r Reservation) bool {
	dc := l.model.Dept(r.Department)
	if dc == nil {
		return false
	}
	poolIdx, pool := dc.PoolFor(r.ProductType)
	if pool == nil {
		return false
	}

	dailyCap := dc.DailyCapacityCp()
	weeklyCap := pool.WeeklyCapacityCp()
	isRock := r.TotalCp >= l.model.BigRockThresholdCp()
	rockCap := dailyCap * int64(l.model.BigRockCapacityPercent) / 100
	maxRocks := l.model.MaxBigRocks(r.Department)

	loads := r.perDayLoads()
	// The block's own days share ISO weeks, so the weekly check has to carry
	// what earlier days of this block already claimed.
	added := make(map[weekPoolKey]int64)
	for i, day := range l.businessDays(r) {
		dk := dayKey{r.Department, calendar.DateKey(day)}
		load := loads[i]

		if l.daily[dk]+load > dailyCap {
			return false
		}

		wk := weekPoolKey{r.Department, poolIdx, calendar.WeekKey(day)}
		if l.weekly[wk]+added[wk]+load > weeklyCap {
			return false
		}
		added[wk] += load

		if isRock {
			count := len(l.rockJobs[dk])
			if _, counted := l.rockJobs[dk][r.JobID]; !counted {
				count++
			}
			if count > maxRocks {
				return false
			}
			if l.rockLoad[dk]+load > rockCap {
				return false
			}
		}
	}
	return true
}

// Reserve commits the block to the ledger. It always succeeds: the caller
// either validated with CanFit or is knowingly recording a conflicted
// placement.
func (l *Ledger) Reserve(r Reservation) {
	dc := l.model.Dept(r.Department)
	if dc == nil {
		return
	}
	poolIdx, _ := dc.PoolFor(r.ProductType)
	isRock := r.TotalCp >= l.model.BigRockThresholdCp()

	loads := r.perDayLoads()
	for i, day := range l.businessDays(r) {
		dk := dayKey{r.Department, calendar.DateKey(day)}
		load := loads[i]

		l.daily[dk] += load
		l.weekly[weekPoolKey{r.Department, poolIdx, calendar.WeekKey(day)}] += load

		if isRock {
			if l.rockJobs[dk] == nil {
				l.rockJobs[dk] = make(map[string]struct{})
			}
			l.rockJobs[dk][r.JobID] = struct{}{}
			l.rockLoad[dk] += load
		}
	}
}

// DailyLoadCp reports the booked load for a department-day.
func (l *Ledger) DailyLoadCp(dept constants.Department, day time.Time) int64 {
	return l.daily[dayKey{dept, calendar.DateKey(day)}]
}

// WeeklyPoolLoadCp reports the booked load for a department pool in one ISO week.
func (l *Ledger) WeeklyPoolLoadCp(dept constants.Department, pool int, week string) int64 {
	return l.weekly[weekPoolKey{dept, pool, week}]
}

// BigRockCount reports how many distinct big rocks occupy a department-day.
func (l *Ledger) BigRockCount(dept constants.Department, day time.Time) int {
	return len(l.rockJobs[dayKey{dept, calendar.DateKey(day)}])
}
