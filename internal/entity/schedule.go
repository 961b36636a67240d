package entity

import (
	"github.com/dsifab/fabsched/constants"
)

// ScheduleWarning reports a job skipped or degraded during a batch run. One
// malformed job never aborts the batch.
type ScheduleWarning struct {
	JobNumber string `json:"job_number"`
	Reason    string `json:"reason"`
}

// ScheduleInsights summarizes a scheduling pass for reporting.
type ScheduleInsights struct {
	JobsScheduled   int                              `json:"jobs_scheduled"`
	JobsSkipped     int                              `json:"jobs_skipped"`
	Conflicts       int                              `json:"conflicts"`
	OverdueJobs     int                              `json:"overdue_jobs"`
	BigRocks        int                              `json:"big_rocks"`
	BatchCohorts    int                              `json:"batch_cohorts"`
	BookedDays      map[constants.Department]float64 `json:"booked_days,omitempty"`
	Warnings        []ScheduleWarning                `json:"warnings,omitempty"`
}

// ScheduleResult is the output of a full scheduling pass.
type ScheduleResult struct {
	Jobs     []*Job           `json:"jobs"`
	Insights ScheduleInsights `json:"insights"`
}
