package duration

import (
	"testing"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/capacity"
)

func newCalc() *Calculator {
	return NewCalculator(capacity.DefaultModel())
}

func TestPointFormulaRoundsUpToHalfDays(t *testing.T) {
	c := newCalc()
	// Welding FAB throughput per project is 3 workers x 25 points = 75/day.
	got := c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      80,
		ProductType: constants.ProductFAB,
	})
	// 80 / 75 = 1.07 days, rounded up to the next half day.
	if got != 3 {
		t.Fatalf("80 FAB points in Welding = %v, want 1.5d", got)
	}

	// Exactly one day of work takes exactly one day.
	got = c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      75,
		ProductType: constants.ProductFAB,
	})
	if got != 2 {
		t.Fatalf("75 FAB points in Welding = %v, want 1d", got)
	}
}

func TestTinyJobsStillTakeHalfADay(t *testing.T) {
	c := newCalc()
	got := c.HalfDays(Input{
		Department:  constants.DeptLaser,
		Points:      0.5,
		ProductType: constants.ProductFAB,
	})
	if got != 1 {
		t.Fatalf("0.5 points = %v, want the half-day minimum", got)
	}
}

func TestBatchDiscount(t *testing.T) {
	if got := EffectivePointsCp(100, 1); got != 10000 {
		t.Fatalf("no batch: %d", got)
	}
	if got := EffectivePointsCp(100, 2); got != 9000 {
		t.Fatalf("batch of 2 should discount 10%%: %d", got)
	}
	if got := EffectivePointsCp(100, 3); got != 8500 {
		t.Fatalf("batch of 3 should discount 15%%: %d", got)
	}
	if got := EffectivePointsCp(100, 7); got != 8500 {
		t.Fatalf("discount should plateau at 15%%: %d", got)
	}
}

func TestCustomerMultiplierSlowsThroughput(t *testing.T) {
	m := capacity.DefaultModel()
	m.CustomerMultipliers["SLOWCO"] = 80
	c := NewCalculator(m)

	base := Input{
		Department:  constants.DeptWelding,
		Points:      75,
		ProductType: constants.ProductFAB,
	}
	if got := c.HalfDays(base); got != 2 {
		t.Fatalf("baseline = %v, want 1d", got)
	}

	slow := base
	slow.CustomerName = "Slow Co."
	// 75 points at 80% of 75/day throughput = 1.25 days, rounded up.
	if got := c.HalfDays(slow); got != 3 {
		t.Fatalf("slow customer = %v, want 1.5d", got)
	}
}

func TestEngineeringIgnoresCustomerMultiplier(t *testing.T) {
	m := capacity.DefaultModel()
	m.CustomerMultipliers["SLOWCO"] = 80
	c := NewCalculator(m)

	got := c.HalfDays(Input{
		Department:   constants.DeptEngineering,
		Points:       60,
		ProductType:  constants.ProductFAB,
		CustomerName: "Slow Co.",
	})
	// Engineering throughput is 120/day regardless of customer: half a day.
	if got != 1 {
		t.Fatalf("Engineering = %v, want 0.5d", got)
	}
}

func TestEngineeringDayCap(t *testing.T) {
	m := capacity.DefaultModel()
	m.EngineeringDayCaps["BIGCLIENT"] = 2
	c := NewCalculator(m)

	got := c.HalfDays(Input{
		Department:   constants.DeptEngineering,
		Points:       600,
		ProductType:  constants.ProductFAB,
		CustomerName: "Big Client",
	})
	if got != calendar.FromDays(2) {
		t.Fatalf("capped Engineering = %v, want 2d", got)
	}

	// The cap never inflates short work.
	got = c.HalfDays(Input{
		Department:   constants.DeptEngineering,
		Points:       60,
		ProductType:  constants.ProductFAB,
		CustomerName: "Big Client",
	})
	if got != 1 {
		t.Fatalf("short job under cap = %v, want 0.5d", got)
	}
}

func TestWeldingFloors(t *testing.T) {
	c := newCalc()

	// A tiny leaf-door job still holds Welding for two days.
	got := c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      5,
		ProductType: constants.ProductDoors,
		Description: "swing door 16ga",
	})
	if got != calendar.FromDays(2) {
		t.Fatalf("leaf door = %v, want the 2d floor", got)
	}

	// NYCHA work holds Welding for three.
	got = c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      5,
		ProductType: constants.ProductFAB,
		JobName:     "NYCHA Building 4",
	})
	if got != calendar.FromDays(3) {
		t.Fatalf("NYCHA = %v, want the 3d floor", got)
	}

	// Frame work is not a leaf and takes its computed time.
	got = c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      5,
		ProductType: constants.ProductDoors,
		Description: "door frames 16ga",
	})
	if got != 1 {
		t.Fatalf("frame job = %v, want 0.5d", got)
	}
}

func TestHarmonicPaintedAssembly(t *testing.T) {
	c := newCalc()

	got := c.HalfDays(Input{
		Department:       constants.DeptAssembly,
		Points:           40,
		ProductType:      constants.ProductHarmonic,
		RequiresPainting: true,
	})
	// 5-day paint window plus the 3-day post-paint minimum.
	if got != calendar.FromDays(8) {
		t.Fatalf("painted HARMONIC = %v, want 8d", got)
	}

	// Big rocks get a 4-day post-paint minimum.
	got = c.HalfDays(Input{
		Department:       constants.DeptAssembly,
		Points:           80,
		ProductType:      constants.ProductHarmonic,
		RequiresPainting: true,
	})
	if got != calendar.FromDays(9) {
		t.Fatalf("painted HARMONIC big rock = %v, want 9d", got)
	}

	// Without painting the normal formula applies.
	got = c.HalfDays(Input{
		Department:  constants.DeptAssembly,
		Points:      40,
		ProductType: constants.ProductHarmonic,
	})
	if got != 1 {
		t.Fatalf("unpainted HARMONIC = %v, want 0.5d", got)
	}
}

func TestDoorSubPipelineRouting(t *testing.T) {
	c := newCalc()

	// 44 seamless doors: press 2d (22/day) then robot 1.5d (30/day).
	got := c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      30,
		ProductType: constants.ProductDoors,
		Description: "seamless doors 16ga",
		Quantity:    44,
	})
	if got != 7 {
		t.Fatalf("44 seamless doors = %v, want 3.5d", got)
	}

	// NYCHA door orders bypass the sub-pipeline for the flat 3 days.
	got = c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      30,
		ProductType: constants.ProductDoors,
		Description: "seamless doors",
		JobName:     "NYCHA phase 2",
		Quantity:    44,
	})
	if got != calendar.FromDays(3) {
		t.Fatalf("NYCHA doors = %v, want 3d", got)
	}

	// Zero quantity falls back to the point formula.
	got = c.HalfDays(Input{
		Department:  constants.DeptWelding,
		Points:      40,
		ProductType: constants.ProductDoors,
		Description: "door frames",
	})
	if got != 2 {
		t.Fatalf("point-formula doors = %v, want 1d", got)
	}
}
