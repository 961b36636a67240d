package duration

import (
	"testing"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/capacity"
)

func TestLockSeamSkipsRobot(t *testing.T) {
	rates := capacity.DefaultModel().DoorRates
	s := DoorWeldingStages(constants.DoorStandardLockSeam, 36, rates)
	// 36 doors at 12/day on the overflow crew.
	if s.Press != 6 || s.Robot != 0 {
		t.Fatalf("lockseam stages = press %v robot %v, want 3d press only", s.Press, s.Robot)
	}
	if s.Total != 6 {
		t.Fatalf("Total = %v, want 3d", s.Total)
	}
}

func TestFloodOverlapsTubeFrameAndPress(t *testing.T) {
	rates := capacity.DefaultModel().DoorRates
	s := DoorWeldingStages(constants.DoorFlood, 20, rates)
	// Tube-frame 2d, press 1.5d starting half a day in, full-weld 2.5d after.
	if s.TubeFrame != 4 || s.Press != 3 || s.FullWeld != 5 {
		t.Fatalf("flood stages = %+v", s)
	}
	if s.Total != 9 {
		t.Fatalf("Total = %v, want 4.5d", s.Total)
	}

	// When press dominates, the overlapped span follows press plus startup.
	slow := rates
	slow.FloodPressPerDay = 4
	s = DoorWeldingStages(constants.DoorFlood, 20, slow)
	// Press 5d + 0.5 startup = 5.5d overlapped, then full-weld 2.5d.
	if s.Total != 16 {
		t.Fatalf("press-bound Total = %v, want 8d", s.Total)
	}
}

func TestTinyOrderGetsTwoDayFloor(t *testing.T) {
	rates := capacity.DefaultModel().DoorRates
	s := DoorWeldingStages(constants.DoorStandardSeamless, 4, rates)
	if s.Total != 4 {
		t.Fatalf("Total = %v, want the 2d floor", s.Total)
	}
	// The shortfall is credited to the press stage.
	if s.Press+s.Robot != s.Total {
		t.Fatalf("stages %v+%v should sum to the floored total %v", s.Press, s.Robot, s.Total)
	}
}

func TestNYCHABypassesSubPipeline(t *testing.T) {
	rates := capacity.DefaultModel().DoorRates
	s := DoorWeldingStages(constants.DoorNYCHA, 500, rates)
	if s.Total != 6 || s.Press != 0 {
		t.Fatalf("NYCHA = %+v, want a flat 3d", s)
	}
}

func TestZeroQuantity(t *testing.T) {
	rates := capacity.DefaultModel().DoorRates
	if s := DoorWeldingStages(constants.DoorFlood, 0, rates); s.Total != 0 {
		t.Fatalf("zero quantity Total = %v, want 0", s.Total)
	}
}
