// Package duration converts job size into department dwell time. Results are
// half-day granular and always rounded up; all arithmetic is integer
// (centipoints over centipoint throughput) so identical inputs give identical
// durations on every platform.
package duration

import (
	"strings"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/batch"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/capacity"
)

// Input describes one job's stay in one department.
type Input struct {
	Department       constants.Department
	Points           float64
	ProductType      constants.ProductType
	Description      string
	JobName          string
	RequiresPainting bool
	CustomerName     string
	// BatchSize is the job's cohort size; 2 earns a 10% discount, 3+ earns 15%.
	BatchSize int
	// Quantity, when set on a DOORS job, routes Welding through the door
	// sub-pipeline.
	Quantity int
}

// Calculator computes department durations over a capacity model.
type Calculator struct {
	model *capacity.Model
}

func NewCalculator(model *capacity.Model) *Calculator {
	return &Calculator{model: model}
}

// paint window for HARMONIC jobs that ship out for painting: a fixed 5-day
// paint turn plus post-paint assembly sized by the job.
const paintWindowDays = 5

// HalfDays returns the dwell time for the input, after batch discounts,
// customer throughput adjustments, the department time multiplier, and the
// business-rule floors.
func (c *Calculator) HalfDays(in Input) calendar.HalfDays {
	dc := c.model.Dept(in.Department)
	if dc == nil {
		return 0
	}

	// DOORS orders with a known quantity run Welding through the door
	// sub-pipeline instead of the point formula.
	if in.Department == constants.DeptWelding && in.ProductType == constants.ProductDoors && in.Quantity > 0 {
		class := batch.ClassifyDoor(in.Description, in.JobName)
		hd := DoorWeldingStages(class, in.Quantity, c.model.DoorRates).Total
		return c.applyWeldingFloors(in, hd)
	}

	cp := discountedCp(capacity.Cp(in.Points), in.BatchSize)

	_, pool := dc.PoolFor(in.ProductType)
	if pool == nil {
		return 0
	}
	outputCp := pool.ProjectOutputCp()
	if in.Department != constants.DeptEngineering {
		outputCp = outputCp * int64(c.model.CustomerMultiplier(in.CustomerName)) / 100
	}
	if outputCp <= 0 {
		outputCp = 1
	}

	hd := calendar.CeilHalfDays(cp*int64(dc.Multiplier()), outputCp*100)
	if hd < 1 && cp > 0 {
		hd = 1
	}

	switch in.Department {
	case constants.DeptEngineering:
		// Engineering gets an absolute per-customer day cap instead of a
		// throughput multiplier.
		if cap := c.model.EngineeringDayCap(in.CustomerName); cap > 0 {
			if capped := calendar.FromDays(cap); hd > capped {
				hd = capped
			}
		}
	case constants.DeptWelding:
		hd = c.applyWeldingFloors(in, hd)
	case constants.DeptAssembly:
		if in.ProductType == constants.ProductHarmonic && in.RequiresPainting {
			post := calendar.FromDays(3)
			if capacity.Cp(in.Points) >= c.model.BigRockThresholdCp() {
				post = calendar.FromDays(4)
			}
			hd = calendar.FromDays(paintWindowDays) + calendar.MaxHalfDays(hd, post)
		}
	}
	return hd
}

// applyWeldingFloors enforces the Welding minimum-duration business rules:
// leaf door jobs take at least 2 days, NYCHA work at least 3.
func (c *Calculator) applyWeldingFloors(in Input, hd calendar.HalfDays) calendar.HalfDays {
	if in.ProductType == constants.ProductDoors && batch.IsLeafDoor(in.Description) {
		hd = calendar.MaxHalfDays(hd, calendar.FromDays(2))
	}
	if strings.Contains(strings.ToUpper(in.JobName), "NYCHA") {
		hd = calendar.MaxHalfDays(hd, calendar.FromDays(3))
	}
	return hd
}

// discountedCp applies the batch cohort discount: 10% off for a 2-job batch,
// 15% off for 3 or more.
func discountedCp(cp int64, batchSize int) int64 {
	switch {
	case batchSize >= 3:
		return cp * 85 / 100
	case batchSize == 2:
		return cp * 90 / 100
	}
	return cp
}

// EffectivePointsCp exposes the discounted point load for ledger reservation:
// the same discount the duration uses must be the load the ledger carries.
func EffectivePointsCp(points float64, batchSize int) int64 {
	return discountedCp(capacity.Cp(points), batchSize)
}
