// Package capacity holds the department/worker-pool capacity model and the
// time-indexed ledger the scheduler reserves against.
//
// All point quantities inside this package are centipoints (points x 100) so
// that batch discounts and customer multipliers stay exact integer math.
package capacity

import (
	"github.com/dsifab/fabsched/constants"
)

// Cp converts points to centipoints.
func Cp(points float64) int64 {
	if points < 0 {
		return 0
	}
	return int64(points*100 + 0.5)
}

// PointsOf converts centipoints back to points for reporting.
func PointsOf(cp int64) float64 {
	return float64(cp) / 100
}

// WorkerPool is a department's worker sub-group with its own throughput and,
// optionally, a restriction to certain product families.
type WorkerPool struct {
	Name          string                  `json:"name"`
	Count         int                     `json:"count"`
	OutputPerDay  int                     `json:"output_per_day"` // points per worker per day
	MaxPerProject int                     `json:"max_per_project"`
	ProductTypes  []constants.ProductType `json:"product_types,omitempty"` // empty = serves all
	// WeeklyCapacity, when set, overrides count x output x 5 points/week.
	WeeklyCapacity int `json:"weekly_capacity,omitempty"`
}

// Serves reports whether this pool accepts the given product family.
func (p *WorkerPool) Serves(t constants.ProductType) bool {
	if len(p.ProductTypes) == 0 {
		return true
	}
	for _, pt := range p.ProductTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// EffectiveWorkers is how many workers can actually gang up on one job.
func (p *WorkerPool) EffectiveWorkers() int {
	if p.MaxPerProject > 0 && p.MaxPerProject < p.Count {
		return p.MaxPerProject
	}
	return p.Count
}

// DailyOutputCp is the pool's total daily throughput in centipoints.
func (p *WorkerPool) DailyOutputCp() int64 {
	return int64(p.Count) * int64(p.OutputPerDay) * 100
}

// ProjectOutputCp is the daily throughput available to a single job.
func (p *WorkerPool) ProjectOutputCp() int64 {
	return int64(p.EffectiveWorkers()) * int64(p.OutputPerDay) * 100
}

// WeeklyCapacityCp is the pool's weekly ceiling in centipoints.
func (p *WorkerPool) WeeklyCapacityCp() int64 {
	if p.WeeklyCapacity > 0 {
		return int64(p.WeeklyCapacity) * 100
	}
	return p.DailyOutputCp() * 5
}

// DepartmentConfig is the static configuration for one pipeline stage.
type DepartmentConfig struct {
	Department   constants.Department `json:"department"`
	Order        int                  `json:"order"`
	IsConstraint bool                 `json:"is_constraint,omitempty"`
	Pools        []WorkerPool         `json:"pools"`
	// TimeMultiplier is in hundredths: 125 means every duration in this
	// department runs 1.25x. Zero means 1.0x.
	TimeMultiplier   int `json:"time_multiplier,omitempty"`
	WeeklyTargetLow  int `json:"weekly_target_low,omitempty"`
	WeeklyTargetHigh int `json:"weekly_target_high,omitempty"`
	// MaxConcurrentBigRocks caps how many big rocks may run here on the same
	// day. Zero means the model default.
	MaxConcurrentBigRocks int `json:"max_concurrent_big_rocks,omitempty"`
}

// Multiplier returns the duration multiplier in hundredths, defaulting to 100.
func (d *DepartmentConfig) Multiplier() int {
	if d.TimeMultiplier <= 0 {
		return 100
	}
	return d.TimeMultiplier
}

// DailyCapacityCp is the department's aggregate daily throughput.
func (d *DepartmentConfig) DailyCapacityCp() int64 {
	var total int64
	for i := range d.Pools {
		total += d.Pools[i].DailyOutputCp()
	}
	return total
}

// PoolFor selects the worker pool serving a product family: the first pool
// whose affinity list matches, else pool 0.
func (d *DepartmentConfig) PoolFor(t constants.ProductType) (int, *WorkerPool) {
	for i := range d.Pools {
		if len(d.Pools[i].ProductTypes) > 0 && d.Pools[i].Serves(t) {
			return i, &d.Pools[i]
		}
	}
	for i := range d.Pools {
		if d.Pools[i].Serves(t) {
			return i, &d.Pools[i]
		}
	}
	if len(d.Pools) == 0 {
		return -1, nil
	}
	return 0, &d.Pools[0]
}

// DoorRates is the per-day throughput table for the DOORS Welding
// sub-pipeline.
type DoorRates struct {
	// Standard seamless doors flow through press then robot.
	PressPerDay int `json:"press_per_day"`
	RobotPerDay int `json:"robot_per_day"`
	// Lock-seam doors run on a separate, lower-throughput overflow crew and
	// skip the robot.
	LockSeamPerDay int `json:"lockseam_per_day"`
	// Flood doors run tube-frame -> press -> full-weld with partial overlap.
	FloodTubeFramePerDay int `json:"flood_tubeframe_per_day"`
	FloodPressPerDay     int `json:"flood_press_per_day"`
	FloodFullWeldPerDay  int `json:"flood_fullweld_per_day"`
}

// OvertimeTier is one predefined overtime configuration. Each tier adds a
// fixed weekly point bonus to every department's capacity.
type OvertimeTier struct {
	Name             string `json:"name"`
	WeeklyBonus      int    `json:"weekly_bonus"` // points per week per department
	LaborDescription string `json:"labor_description"`
	Saturday         bool   `json:"saturday,omitempty"`
}

// Model is the complete capacity configuration: pipeline departments, job
// size thresholds, customer throughput adjustments, door throughput, quote
// conversion rates, and overtime tiers.
type Model struct {
	Departments map[constants.Department]*DepartmentConfig `json:"departments"`

	// BigRockThreshold and MediumJobThreshold are in points.
	BigRockThreshold   int `json:"big_rock_threshold"`
	MediumJobThreshold int `json:"medium_job_threshold"`

	// DefaultMaxBigRocks applies to departments without their own cap.
	DefaultMaxBigRocks int `json:"default_max_big_rocks"`
	// BigRockCapacityPercent caps aggregate big-rock load per department-day
	// once any big rock is present, as a percent of daily capacity.
	BigRockCapacityPercent int `json:"big_rock_capacity_percent"`

	// CustomerMultipliers adjusts effective output per customer, in percent
	// (80 = the customer's work runs at 80% throughput). Applies everywhere
	// except Engineering.
	CustomerMultipliers map[string]int `json:"customer_multipliers,omitempty"`
	// EngineeringDayCaps is the Engineering-specific rule: an absolute cap on
	// Engineering days per customer instead of a multiplier.
	EngineeringDayCaps map[string]int `json:"engineering_day_caps,omitempty"`

	DoorRates DoorRates `json:"door_rates"`

	// DollarsPerPoint converts quote dollar value to points per product family.
	DollarsPerPoint map[constants.ProductType]float64 `json:"dollars_per_point"`

	OvertimeTiers []OvertimeTier `json:"overtime_tiers,omitempty"`

	// BufferDays is the delivery buffer: backward scheduling ends the last
	// department this many business days before the due date.
	BufferDays int `json:"buffer_days"`
	// SameDayDepartmentCap limits how many departments may be active for one
	// job on the same calendar day.
	SameDayDepartmentCap int `json:"same_day_department_cap"`
	// MaxShiftAttempts bounds the placement shift search.
	MaxShiftAttempts int `json:"max_shift_attempts"`

	SaturdayOvertime bool `json:"saturday_overtime,omitempty"`
}

// Dept returns the configuration for one department.
func (m *Model) Dept(d constants.Department) *DepartmentConfig {
	return m.Departments[d]
}

// MaxBigRocks returns the big-rock concurrency cap for a department.
func (m *Model) MaxBigRocks(d constants.Department) int {
	if dc := m.Departments[d]; dc != nil && dc.MaxConcurrentBigRocks > 0 {
		return dc.MaxConcurrentBigRocks
	}
	if m.DefaultMaxBigRocks > 0 {
		return m.DefaultMaxBigRocks
	}
	return 2
}

// BigRockThresholdCp is the big-rock cutoff in centipoints.
func (m *Model) BigRockThresholdCp() int64 {
	return int64(m.BigRockThreshold) * 100
}

// MediumThresholdCp is the medium-job cutoff in centipoints.
func (m *Model) MediumThresholdCp() int64 {
	return int64(m.MediumJobThreshold) * 100
}

// CustomerMultiplier returns the throughput percent for a customer (100 when
// unconfigured).
func (m *Model) CustomerMultiplier(customer string) int {
	if pct, ok := m.CustomerMultipliers[normalizeCustomer(customer)]; ok && pct > 0 {
		return pct
	}
	return 100
}

// EngineeringDayCap returns the customer's Engineering day cap (0 = none).
func (m *Model) EngineeringDayCap(customer string) int {
	return m.EngineeringDayCaps[normalizeCustomer(customer)]
}

// PointsForDollars converts a quote's dollar value to points.
func (m *Model) PointsForDollars(t constants.ProductType, dollars float64) float64 {
	rate := m.DollarsPerPoint[t]
	if rate <= 0 {
		rate = 450
	}
	return dollars / rate
}

func normalizeCustomer(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == ' ' || c == '.' || c == ',' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// DefaultModel is the compiled-in department table for the shop's six-station
// pipeline. Welding is the constraint department; its pools split FAB work
// from the DOORS line.
func DefaultModel() *Model {
	return &Model{
		Departments: map[constants.Department]*DepartmentConfig{
			constants.DeptEngineering: {
				Department: constants.DeptEngineering,
				Order:      0,
				Pools: []WorkerPool{
					{Name: "engineering", Count: 2, OutputPerDay: 60, MaxPerProject: 2},
				},
				WeeklyTargetLow:  400,
				WeeklyTargetHigh: 600,
			},
			constants.DeptLaser: {
				Department: constants.DeptLaser,
				Order:      1,
				Pools: []WorkerPool{
					{Name: "laser", Count: 2, OutputPerDay: 80, MaxPerProject: 1},
				},
				WeeklyTargetLow:  500,
				WeeklyTargetHigh: 800,
			},
			constants.DeptPressBrake: {
				Department: constants.DeptPressBrake,
				Order:      2,
				Pools: []WorkerPool{
					{Name: "press-brake", Count: 3, OutputPerDay: 55, MaxPerProject: 2},
				},
				WeeklyTargetLow:  500,
				WeeklyTargetHigh: 825,
			},
			constants.DeptWelding: {
				Department:   constants.DeptWelding,
				Order:        3,
				IsConstraint: true,
				Pools: []WorkerPool{
					{Name: "fab-welders", Count: 6, OutputPerDay: 25, MaxPerProject: 3,
						ProductTypes: []constants.ProductType{constants.ProductFAB, constants.ProductHarmonic}},
					{Name: "door-line", Count: 4, OutputPerDay: 20, MaxPerProject: 2,
						ProductTypes: []constants.ProductType{constants.ProductDoors},
						WeeklyCapacity: 380},
				},
				WeeklyTargetLow:  900,
				WeeklyTargetHigh: 1150,
			},
			constants.DeptPolishing: {
				Department: constants.DeptPolishing,
				Order:      4,
				Pools: []WorkerPool{
					{Name: "polishing", Count: 3, OutputPerDay: 45, MaxPerProject: 2},
				},
				WeeklyTargetLow:  450,
				WeeklyTargetHigh: 675,
			},
			constants.DeptAssembly: {
				Department:     constants.DeptAssembly,
				Order:          5,
				TimeMultiplier: 125,
				Pools: []WorkerPool{
					{Name: "assembly", Count: 4, OutputPerDay: 40, MaxPerProject: 3},
				},
				WeeklyTargetLow:  550,
				WeeklyTargetHigh: 800,
			},
		},
		BigRockThreshold:       60,
		MediumJobThreshold:     20,
		DefaultMaxBigRocks:     2,
		BigRockCapacityPercent: 70,
		CustomerMultipliers:    map[string]int{},
		EngineeringDayCaps:     map[string]int{},
		DoorRates: DoorRates{
			PressPerDay:          22,
			RobotPerDay:          30,
			LockSeamPerDay:       12,
			FloodTubeFramePerDay: 10,
			FloodPressPerDay:     14,
			FloodFullWeldPerDay:  8,
		},
		DollarsPerPoint: map[constants.ProductType]float64{
			constants.ProductFAB:      450,
			constants.ProductDoors:    350,
			constants.ProductHarmonic: 500,
		},
		OvertimeTiers: []OvertimeTier{
			{Name: "OT1", WeeklyBonus: 100, LaborDescription: "Saturday half shift, welding and press brake"},
			{Name: "OT2", WeeklyBonus: 200, LaborDescription: "Full Saturday shift, all departments", Saturday: true},
			{Name: "OT3", WeeklyBonus: 300, LaborDescription: "Saturday plus two weekday evening shifts", Saturday: true},
			{Name: "OT4", WeeklyBonus: 400, LaborDescription: "Saturday and Sunday shifts, maximum sustainable", Saturday: true},
		},
		BufferDays:           2,
		SameDayDepartmentCap: 2,
		MaxShiftAttempts:     60,
	}
}
