package duration

import (
	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/capacity"
)

// DoorStages is the per-stage breakdown of a DOORS job's Welding dwell time.
// Stages not used by the door class stay zero.
type DoorStages struct {
	Class     constants.DoorClass
	TubeFrame calendar.HalfDays
	Press     calendar.HalfDays
	Robot     calendar.HalfDays
	FullWeld  calendar.HalfDays
	Total     calendar.HalfDays
}

// minDoorHalfDays is the 2-day floor on any leaf-job sub-pipeline result.
const minDoorHalfDays = calendar.HalfDays(4)

// floodPressStartup is the fixed startup lag before the press stage can begin
// consuming tube-frame output.
const floodPressStartup = calendar.HalfDays(1)

// DoorWeldingStages computes the Welding sub-pipeline duration for a door
// order of the given quantity.
//
// Lock-seam doors run on the overflow crew and skip the robot. Seamless doors
// flow through press then robot. Flood doors run tube-frame, press, and
// full-weld with partial overlap: press starts half a day after tube-frame
// output begins, so the overlapped span is max(tubeFrame, press+0.5), then
// full-weld follows. NYCHA orders bypass the sub-pipeline and take the 3-day
// floor.
//
// Any shortfall against the 2-day minimum is credited to the press stage.
func DoorWeldingStages(class constants.DoorClass, qty int, rates capacity.DoorRates) DoorStages {
	s := DoorStages{Class: class}
	if qty <= 0 {
		return s
	}

	switch class {
	case constants.DoorNYCHA:
		s.Total = calendar.FromDays(3)
		return s

	case constants.DoorStandardLockSeam:
		s.Press = stageHalfDays(qty, rates.LockSeamPerDay)
		s.Total = s.Press

	case constants.DoorStandardSeamless:
		s.Press = stageHalfDays(qty, rates.PressPerDay)
		s.Robot = stageHalfDays(qty, rates.RobotPerDay)
		s.Total = s.Press + s.Robot

	case constants.DoorFlood:
		s.TubeFrame = stageHalfDays(qty, rates.FloodTubeFramePerDay)
		s.Press = stageHalfDays(qty, rates.FloodPressPerDay)
		s.FullWeld = stageHalfDays(qty, rates.FloodFullWeldPerDay)
		overlapped := calendar.MaxHalfDays(s.TubeFrame, s.Press+floodPressStartup)
		s.Total = overlapped + s.FullWeld
	}

	if s.Total < minDoorHalfDays {
		s.Press += minDoorHalfDays - s.Total
		s.Total = minDoorHalfDays
	}
	return s
}

func stageHalfDays(qty, perDay int) calendar.HalfDays {
	if perDay <= 0 {
		perDay = 1
	}
	return calendar.CeilHalfDays(int64(qty), int64(perDay))
}
