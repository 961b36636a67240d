package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/dsifab/fabsched/constants"
)

// DepartmentWindow is one department's scheduled occupancy, inclusive on both
// ends. Boundaries always fall on business days.
type DepartmentWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Job represents a unit of fabrication work for data transfer between layers.
// Welding points are the universal currency of size and capacity.
type Job struct {
	ID               uuid.UUID `json:"id"`
	JobNumber        string    `json:"job_number"`
	JobName          string    `json:"job_name"`
	Description      string    `json:"description"`
	CustomerName     string    `json:"customer_name"`
	SalesOrder       string    `json:"sales_order,omitempty"`
	ProductType      constants.ProductType `json:"product_type"`
	WeldingPoints    float64   `json:"welding_points"`
	Quantity         int       `json:"quantity,omitempty"`
	RequiresPainting bool      `json:"requires_painting,omitempty"`
	DueDate          time.Time `json:"due_date"`

	CurrentDepartment constants.Department `json:"current_department,omitempty"`
	UrgencyScore      float64              `json:"urgency_score,omitempty"`
	NoGaps            bool                 `json:"no_gaps,omitempty"`
	Completed         bool                 `json:"completed,omitempty"`

	// Scheduling output. DepartmentSchedule covers the full pipeline;
	// RemainingDepartmentSchedule is restricted to the current department and
	// later stages. ScheduledDepartmentByDate maps a date key to the
	// department the schedule expects the job to occupy that day.
	StartDate                   *time.Time                                   `json:"start_date,omitempty"`
	DepartmentSchedule          map[constants.Department]*DepartmentWindow   `json:"department_schedule,omitempty"`
	RemainingDepartmentSchedule map[constants.Department]*DepartmentWindow   `json:"remaining_department_schedule,omitempty"`
	ScheduledDepartmentByDate   map[string]constants.Department              `json:"scheduled_department_by_date,omitempty"`

	// Soft business signals. Never errors: an infeasible-as-requested
	// schedule is a normal outcome that callers render, not handle.
	IsOverdue          bool                     `json:"is_overdue,omitempty"`
	SchedulingConflict bool                     `json:"scheduling_conflict,omitempty"`
	ProgressStatus     constants.ProgressStatus `json:"progress_status,omitempty"`
	NeedsReschedule    bool                     `json:"needs_reschedule,omitempty"`

	LastDepartmentChange *time.Time `json:"last_department_change,omitempty"`
}

// ScheduledEnd returns the end of the job's last scheduled department window.
func (j *Job) ScheduledEnd() (time.Time, bool) {
	var end time.Time
	found := false
	for _, w := range j.DepartmentSchedule {
		if w == nil {
			continue
		}
		if !found || w.End.After(end) {
			end = w.End
			found = true
		}
	}
	return end, found
}

// WindowFor returns the scheduled window for one department, if any.
func (j *Job) WindowFor(dept constants.Department) (*DepartmentWindow, bool) {
	w, ok := j.DepartmentSchedule[dept]
	if !ok || w == nil {
		return nil, false
	}
	return w, true
}

// Clone returns a deep copy of the job. Scheduling never mutates its inputs;
// superseded schedules are retired with the old copy, not overwritten.
func (j *Job) Clone() *Job {
	out := *j
	if j.StartDate != nil {
		t := *j.StartDate
		out.StartDate = &t
	}
	if j.LastDepartmentChange != nil {
		t := *j.LastDepartmentChange
		out.LastDepartmentChange = &t
	}
	if j.DepartmentSchedule != nil {
		out.DepartmentSchedule = make(map[constants.Department]*DepartmentWindow, len(j.DepartmentSchedule))
		for d, w := range j.DepartmentSchedule {
			cw := *w
			out.DepartmentSchedule[d] = &cw
		}
	}
	if j.RemainingDepartmentSchedule != nil {
		out.RemainingDepartmentSchedule = make(map[constants.Department]*DepartmentWindow, len(j.RemainingDepartmentSchedule))
		for d, w := range j.RemainingDepartmentSchedule {
			cw := *w
			out.RemainingDepartmentSchedule[d] = &cw
		}
	}
	if j.ScheduledDepartmentByDate != nil {
		out.ScheduledDepartmentByDate = make(map[string]constants.Department, len(j.ScheduledDepartmentByDate))
		for k, v := range j.ScheduledDepartmentByDate {
			out.ScheduledDepartmentByDate[k] = v
		}
	}
	return &out
}
