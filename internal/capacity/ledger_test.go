package capacity

import (
	"testing"
	"time"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

// Monday.
var monday = day(2026, 8, 31)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(DefaultModel(), calendar.Calendar{})
}

func TestCpConversion(t *testing.T) {
	if Cp(12.345) != 1235 {
		t.Fatalf("Cp(12.345) = %d", Cp(12.345))
	}
	if Cp(0) != 0 || Cp(-4) != 0 {
		t.Fatal("non-positive points should map to zero centipoints")
	}
	if PointsOf(1235) != 12.35 {
		t.Fatalf("PointsOf(1235) = %v", PointsOf(1235))
	}
}

func TestDailyCapacityRejectsOverload(t *testing.T) {
	led := newTestLedger(t)
	// Engineering daily capacity is 120 points (2 workers x 60).
	r := Reservation{
		Department:  constants.DeptEngineering,
		Start:       monday,
		Days:        1,
		TotalCp:     Cp(50),
		ProductType: constants.ProductFAB,
		JobID:       "J-1",
	}
	if !led.CanFit(r) {
		t.Fatal("first 50-point day should fit")
	}
	led.Reserve(r)

	r.JobID = "J-2"
	if !led.CanFit(r) {
		t.Fatal("second 50-point day should fit")
	}
	led.Reserve(r)

	r.JobID = "J-3"
	if led.CanFit(r) {
		t.Fatal("third 50-point day exceeds the 120-point daily cap")
	}

	if got := led.DailyLoadCp(constants.DeptEngineering, monday); got != Cp(100) {
		t.Fatalf("daily load = %d, want %d", got, Cp(100))
	}
}

func TestWeeklyPoolCapIsPerProductLine(t *testing.T) {
	led := newTestLedger(t)
	// The Welding door line is capped at 380 points per week; 400 door points
	// in one week cannot fit even though the department-day totals would.
	doors := Reservation{
		Department:  constants.DeptWelding,
		Start:       monday,
		Days:        5,
		TotalCp:     Cp(400),
		ProductType: constants.ProductDoors,
		JobID:       "D-1",
	}
	if led.CanFit(doors) {
		t.Fatal("400 door points in one week should exceed the door-line weekly cap")
	}

	// The same load as FAB work lands on the fab-welders pool, whose weekly
	// ceiling is far higher.
	fab := doors
	fab.ProductType = constants.ProductFAB
	fab.JobID = "F-1"
	if !led.CanFit(fab) {
		t.Fatal("400 FAB points in one week should fit the fab-welders pool")
	}
}

func TestWeeklyPoolCapAccumulatesAcrossBlockDays(t *testing.T) {
	led := newTestLedger(t)
	// Two-day 50-point door blocks put only 25 points on each day, far under
	// the department's daily cap. The door line still has to stop at 380
	// points for the week: seven blocks fit, the eighth does not.
	block := func(id string) Reservation {
		return Reservation{
			Department:  constants.DeptWelding,
			Start:       monday,
			Days:        2,
			TotalCp:     Cp(50),
			ProductType: constants.ProductDoors,
			JobID:       id,
		}
	}

	for i := 0; i < 7; i++ {
		r := block(string(rune('A' + i)))
		if !led.CanFit(r) {
			t.Fatalf("block %d (%d points so far) should fit", i+1, 50*i)
		}
		led.Reserve(r)
	}
	if led.CanFit(block("H")) {
		t.Fatal("eighth block would put 400 door points in a 380-point week")
	}
	week := calendar.WeekKey(monday)
	if got := led.WeeklyPoolLoadCp(constants.DeptWelding, 1, week); got != Cp(350) {
		t.Fatalf("door-line weekly load = %d, want %d", got, Cp(350))
	}
}

func TestBigRockConcurrencyCap(t *testing.T) {
	led := newTestLedger(t)
	rock := func(id string) Reservation {
		return Reservation{
			Department:  constants.DeptWelding,
			Start:       monday,
			Days:        1,
			TotalCp:     Cp(60), // exactly the big-rock threshold
			ProductType: constants.ProductFAB,
			JobID:       id,
		}
	}

	for _, id := range []string{"R-1", "R-2"} {
		r := rock(id)
		if !led.CanFit(r) {
			t.Fatalf("rock %s should fit", id)
		}
		led.Reserve(r)
	}
	if led.CanFit(rock("R-3")) {
		t.Fatal("a third concurrent big rock should be rejected")
	}
	if got := led.BigRockCount(constants.DeptWelding, monday); got != 2 {
		t.Fatalf("BigRockCount = %d, want 2", got)
	}

	// Re-checking a day the job already occupies must not double-count it.
	dedupe := newTestLedger(t)
	dedupe.Reserve(rock("R-1"))
	if !dedupe.CanFit(rock("R-1")) {
		t.Fatal("a job already on the day should not count against itself")
	}
}

func TestBigRockAggregateFraction(t *testing.T) {
	led := newTestLedger(t)
	// Welding daily capacity is 230 points; the big-rock aggregate cap is 70%
	// of that, 161 points. Two 90-point rocks stay under the concurrency cap
	// but overflow the aggregate fraction.
	rock := Reservation{
		Department:  constants.DeptWelding,
		Start:       monday,
		Days:        1,
		TotalCp:     Cp(90),
		ProductType: constants.ProductFAB,
		JobID:       "R-1",
	}
	if !led.CanFit(rock) {
		t.Fatal("first 90-point rock should fit")
	}
	led.Reserve(rock)

	rock.JobID = "R-2"
	if led.CanFit(rock) {
		t.Fatal("second 90-point rock should exceed the 70% aggregate cap")
	}
}

func TestReservationSpansWeekend(t *testing.T) {
	led := newTestLedger(t)
	fri := day(2026, 9, 4)
	r := Reservation{
		Department:  constants.DeptLaser,
		Start:       fri,
		Days:        2,
		TotalCp:     Cp(40),
		ProductType: constants.ProductFAB,
		JobID:       "J-1",
	}
	led.Reserve(r)

	if got := led.DailyLoadCp(constants.DeptLaser, fri); got != Cp(20) {
		t.Fatalf("Friday load = %d, want %d", got, Cp(20))
	}
	if got := led.DailyLoadCp(constants.DeptLaser, day(2026, 9, 5)); got != 0 {
		t.Fatalf("Saturday load = %d, want 0", got)
	}
	if got := led.DailyLoadCp(constants.DeptLaser, day(2026, 9, 7)); got != Cp(20) {
		t.Fatalf("Monday load = %d, want %d", got, Cp(20))
	}
}

func TestPerDayRemainderIsConserved(t *testing.T) {
	r := Reservation{Days: 3, TotalCp: 100}
	loads := r.perDayLoads()
	if len(loads) != 3 {
		t.Fatalf("len = %d", len(loads))
	}
	if loads[0] != 34 || loads[1] != 33 || loads[2] != 33 {
		t.Fatalf("loads = %v, want [34 33 33]", loads)
	}
}

func TestPoolSelection(t *testing.T) {
	m := DefaultModel()
	welding := m.Dept(constants.DeptWelding)

	idx, pool := welding.PoolFor(constants.ProductDoors)
	if idx != 1 || pool.Name != "door-line" {
		t.Fatalf("DOORS pool = %d %q, want the door line", idx, pool.Name)
	}
	idx, pool = welding.PoolFor(constants.ProductFAB)
	if idx != 0 || pool.Name != "fab-welders" {
		t.Fatalf("FAB pool = %d %q, want fab-welders", idx, pool.Name)
	}

	eng := m.Dept(constants.DeptEngineering)
	if idx, _ := eng.PoolFor(constants.ProductDoors); idx != 0 {
		t.Fatalf("departments without affinity pools should fall back to pool 0, got %d", idx)
	}
}

func TestWeeklyCapacityOverride(t *testing.T) {
	m := DefaultModel()
	_, doorLine := m.Dept(constants.DeptWelding).PoolFor(constants.ProductDoors)
	if got := doorLine.WeeklyCapacityCp(); got != Cp(380) {
		t.Fatalf("door-line weekly cap = %d, want %d", got, Cp(380))
	}
	_, fab := m.Dept(constants.DeptWelding).PoolFor(constants.ProductFAB)
	if got := fab.WeeklyCapacityCp(); got != fab.DailyOutputCp()*5 {
		t.Fatalf("fab weekly cap = %d, want 5x daily", got)
	}
}

func TestCustomerNormalization(t *testing.T) {
	m := DefaultModel()
	m.CustomerMultipliers["ACMECORP"] = 80
	m.EngineeringDayCaps["ACMECORP"] = 3

	if got := m.CustomerMultiplier("Acme Corp."); got != 80 {
		t.Fatalf("CustomerMultiplier = %d, want 80", got)
	}
	if got := m.CustomerMultiplier("Unknown LLC"); got != 100 {
		t.Fatalf("unconfigured customer = %d, want 100", got)
	}
	if got := m.EngineeringDayCap("acme corp"); got != 3 {
		t.Fatalf("EngineeringDayCap = %d, want 3", got)
	}
}

func TestPointsForDollars(t *testing.T) {
	m := DefaultModel()
	if got := m.PointsForDollars(constants.ProductDoors, 3500); got != 10 {
		t.Fatalf("3500 door dollars = %v points, want 10", got)
	}
	if got := m.PointsForDollars(constants.ProductFAB, 450); got != 1 {
		t.Fatalf("450 FAB dollars = %v points, want 1", got)
	}
}
