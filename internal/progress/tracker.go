// Package progress compares a freshly imported job against its previously
// persisted schedule and classifies drift. It never touches the ledger; the
// persisted schedule is the promise, the import is reality.
package progress

import (
	"time"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/entity"
)

// stallAfterDays escalates SLIPPING to STALLED when the job has not moved
// departments for this many days.
const stallAfterDays = 2

// Track merges an incoming job with its persisted predecessor and computes
// drift. The persisted schedule is carried over verbatim unless the due date
// changed, in which case the job is flagged for rescheduling.
func Track(incoming, previous *entity.Job, today time.Time) *entity.Job {
	out := incoming.Clone()
	today = calendar.Normalize(today)

	if previous == nil {
		out.NeedsReschedule = out.DepartmentSchedule == nil
		return out
	}

	// Due-date changes compare calendar dates, not timestamps: imports carry
	// arbitrary times-of-day.
	dueChanged := !calendar.SameDate(incoming.DueDate, previous.DueDate)

	// Carry the committed schedule forward so a daily re-import doesn't move
	// promised dates. A changed due date retires it instead. The carried
	// maps come from a clone so the returned job and the persisted
	// predecessor never share state.
	prev := previous.Clone()
	if !dueChanged {
		out.StartDate = prev.StartDate
		out.DepartmentSchedule = prev.DepartmentSchedule
		out.RemainingDepartmentSchedule = prev.RemainingDepartmentSchedule
		out.ScheduledDepartmentByDate = prev.ScheduledDepartmentByDate
		out.IsOverdue = prev.IsOverdue
		out.SchedulingConflict = prev.SchedulingConflict
	} else {
		out.NeedsReschedule = true
	}

	if incoming.CurrentDepartment != previous.CurrentDepartment {
		t := today
		out.LastDepartmentChange = &t
	} else {
		out.LastDepartmentChange = prev.LastDepartmentChange
	}

	out.ProgressStatus = status(out, previous, today)
	return out
}

// status compares where the job is against where the previous schedule
// expected it to be today.
func status(job, previous *entity.Job, today time.Time) constants.ProgressStatus {
	expected, ok := previous.ScheduledDepartmentByDate[calendar.DateKey(today)]
	if !ok {
		// Today is outside the scheduled span; nothing to measure against.
		if prior := previous.ProgressStatus; prior != "" {
			return prior
		}
		return constants.ProgressOnTrack
	}

	curIdx := job.CurrentDepartment.Index()
	expIdx := expected.Index()
	switch {
	case curIdx < 0 || expIdx < 0:
		return constants.ProgressOnTrack
	case curIdx > expIdx:
		return constants.ProgressAhead
	case curIdx == expIdx:
		return constants.ProgressOnTrack
	}

	if stalled(job, today) {
		return constants.ProgressStalled
	}
	return constants.ProgressSlipping
}

func stalled(job *entity.Job, today time.Time) bool {
	if job.LastDepartmentChange == nil {
		return true
	}
	idle := today.Sub(calendar.Normalize(*job.LastDepartmentChange))
	return idle >= stallAfterDays*24*time.Hour
}
