package scheduler

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/batch"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/capacity"
	"github.com/dsifab/fabsched/internal/entity"
)

// UrgencyScorer supplies a job's urgency score for priority ordering. The
// engine treats it as injected; DefaultUrgencyScorer keeps the CLI useful
// stand-alone.
type UrgencyScorer func(j *entity.Job, today time.Time) float64

// DefaultUrgencyScorer weights closeness to the due date and job size.
// Overdue days count double.
func DefaultUrgencyScorer(j *entity.Job, today time.Time) float64 {
	cal := calendar.Calendar{}
	toDue := cal.BusinessDaysBetween(today, j.DueDate)
	score := j.WeldingPoints / 10
	if toDue < 0 {
		score += float64(-toDue) * 2
	} else if toDue < 30 {
		score += float64(30 - toDue)
	}
	return score
}

// ScheduleAll runs a full scheduling pass: replay committed jobs into a fresh
// ledger, then place the new jobs in priority order. The pass is a pure
// function of its inputs; identical inputs produce identical schedules.
//
// A malformed job is skipped with a warning, never aborting the batch.
func (s *Scheduler) ScheduleAll(newJobs, committed []*entity.Job, today time.Time) *entity.ScheduleResult {
	today = s.cal.NextWorkday(today)
	led := capacity.NewLedger(s.model, s.cal)

	result := &entity.ScheduleResult{}
	s.replayCommitted(led, committed)

	valid := make([]*entity.Job, 0, len(newJobs))
	for _, j := range newJobs {
		if reason, ok := s.validate(j); !ok {
			num := ""
			if j != nil {
				num = j.JobNumber
			}
			s.logger.Warn("skipping malformed job", "job", num, "reason", reason)
			result.Insights.Warnings = append(result.Insights.Warnings, entity.ScheduleWarning{
				JobNumber: num,
				Reason:    reason,
			})
			result.Insights.JobsSkipped++
			continue
		}
		valid = append(valid, j)
	}

	// Default scores go onto clones; the caller's jobs are never written to.
	for i, j := range valid {
		if j.UrgencyScore == 0 && s.score != nil {
			c := j.Clone()
			c.UrgencyScore = s.score(c, today)
			valid[i] = c
		}
	}

	ordered, sizes := s.prioritize(valid, today)

	for _, item := range ordered {
		var out *entity.Job
		if item.overdue {
			out = s.forwardFromToday(item.job, sizes[item.job.ID], led, today)
			result.Insights.OverdueJobs++
		} else {
			out = s.backwardFromDue(item.job, sizes[item.job.ID], led, today)
		}
		if out.SchedulingConflict {
			result.Insights.Conflicts++
		}
		if capacity.Cp(out.WeldingPoints) >= s.model.BigRockThresholdCp() {
			result.Insights.BigRocks++
		}
		result.Jobs = append(result.Jobs, out)
		result.Insights.JobsScheduled++
	}

	result.Insights.BatchCohorts = countCohorts(sizes)
	all := make([]*entity.Job, 0, len(result.Jobs)+len(committed))
	all = append(all, result.Jobs...)
	all = append(all, committed...)
	result.Insights.BookedDays = s.bookedDays(all)
	return result
}

type orderedJob struct {
	job     *entity.Job
	overdue bool
}

// prioritize implements the pass ordering policy: overdue before on-time,
// big rocks before smaller jobs, and smaller jobs run through the batch
// classifier so cohorts stay adjacent.
func (s *Scheduler) prioritize(jobs []*entity.Job, today time.Time) ([]orderedJob, map[uuid.UUID]int) {
	var overdueBig, overdueSmall, onTimeBig, onTimeSmall []*entity.Job
	for _, j := range jobs {
		overdue := calendar.Normalize(j.DueDate).Before(today)
		big := capacity.Cp(j.WeldingPoints) >= s.model.BigRockThresholdCp()
		switch {
		case overdue && big:
			overdueBig = append(overdueBig, j)
		case overdue:
			overdueSmall = append(overdueSmall, j)
		case big:
			onTimeBig = append(onTimeBig, j)
		default:
			onTimeSmall = append(onTimeSmall, j)
		}
	}

	s.sortBigRocks(overdueBig, today)
	s.sortBigRocks(onTimeBig, today)

	sizes := make(map[uuid.UUID]int, len(jobs))
	for _, j := range append(append([]*entity.Job{}, overdueBig...), onTimeBig...) {
		sizes[j.ID] = 1
	}

	overdueSmallOrdered, overdueSizes, _ := batch.GroupAndOrder(overdueSmall)
	onTimeSmallOrdered, onTimeSizes, _ := batch.GroupAndOrder(onTimeSmall)
	for id, n := range overdueSizes {
		sizes[id] = n
	}
	for id, n := range onTimeSizes {
		sizes[id] = n
	}

	var ordered []orderedJob
	for _, j := range overdueBig {
		ordered = append(ordered, orderedJob{j, true})
	}
	for _, j := range overdueSmallOrdered {
		ordered = append(ordered, orderedJob{j, true})
	}
	for _, j := range onTimeBig {
		ordered = append(ordered, orderedJob{j, false})
	}
	for _, j := range onTimeSmallOrdered {
		ordered = append(ordered, orderedJob{j, false})
	}
	return ordered, sizes
}

// sortBigRocks orders big rocks by urgency descending, due date ascending,
// then size descending. For overdue rocks urgency is dominated by overdue
// days, which yields most-overdue-first.
func (s *Scheduler) sortBigRocks(jobs []*entity.Job, today time.Time) {
	sort.SliceStable(jobs, func(a, b int) bool {
		ja, jb := jobs[a], jobs[b]
		if ja.UrgencyScore != jb.UrgencyScore {
			return ja.UrgencyScore > jb.UrgencyScore
		}
		if !ja.DueDate.Equal(jb.DueDate) {
			return ja.DueDate.Before(jb.DueDate)
		}
		if ja.WeldingPoints != jb.WeldingPoints {
			return ja.WeldingPoints > jb.WeldingPoints
		}
		return ja.JobNumber < jb.JobNumber
	})
}

// validate applies the fail-fast input checks. Soft business conditions are
// not validated here; only caller programming errors are.
func (s *Scheduler) validate(j *entity.Job) (string, bool) {
	switch {
	case j == nil:
		return "nil job", false
	case j.DueDate.IsZero():
		return "missing due date", false
	case j.WeldingPoints <= 0:
		return "welding points must be positive", false
	case !j.ProductType.Valid():
		return "unknown product type", false
	}
	return "", true
}

// replayCommitted re-reserves every committed job's windows so new placements
// see the capacity they already consume.
func (s *Scheduler) replayCommitted(led *capacity.Ledger, committed []*entity.Job) {
	for _, j := range committed {
		if j == nil || j.Completed || len(j.DepartmentSchedule) == 0 {
			continue
		}
		cp := capacity.Cp(j.WeldingPoints)
		for _, dept := range constants.PipelineOrder {
			w, ok := j.DepartmentSchedule[dept]
			if !ok || w == nil {
				continue
			}
			days := len(s.cal.WorkdaysInWindow(w.Start, w.End))
			if days < 1 {
				days = 1
			}
			led.Reserve(capacity.Reservation{
				Department:  dept,
				Start:       w.Start,
				Days:        days,
				TotalCp:     cp,
				ProductType: j.ProductType,
				JobID:       j.ID.String(),
			})
		}
	}
}

// QueueBufferDays reports, per department, how many days of already-committed
// work are queued from the given date forward: remaining booked points over
// daily capacity.
func (s *Scheduler) QueueBufferDays(committed []*entity.Job, from time.Time) map[constants.Department]float64 {
	from = calendar.Normalize(from)
	remaining := make(map[constants.Department]int64)

	for _, j := range committed {
		if j == nil || j.Completed {
			continue
		}
		cp := capacity.Cp(j.WeldingPoints)
		for _, dept := range constants.PipelineOrder {
			w, ok := j.DepartmentSchedule[dept]
			if !ok || w == nil || w.End.Before(from) {
				continue
			}
			total := len(s.cal.WorkdaysInWindow(w.Start, w.End))
			if total < 1 {
				total = 1
			}
			left := len(s.cal.WorkdaysInWindow(maxTime(w.Start, from), w.End))
			remaining[dept] += cp * int64(left) / int64(total)
		}
	}

	out := make(map[constants.Department]float64, len(constants.PipelineOrder))
	for _, dept := range constants.PipelineOrder {
		dc := s.model.Dept(dept)
		if dc == nil || dc.DailyCapacityCp() == 0 {
			continue
		}
		out[dept] = float64(remaining[dept]) / float64(dc.DailyCapacityCp())
	}
	return out
}

// bookedDays summarizes scheduled load per department in days of capacity.
func (s *Scheduler) bookedDays(jobs []*entity.Job) map[constants.Department]float64 {
	return s.QueueBufferDays(jobs, time.Time{})
}

func countCohorts(sizes map[uuid.UUID]int) int {
	// Each cohort of size n contributes n entries of the same size; count
	// cohorts as total multi-job entries divided by their size.
	counts := make(map[int]int)
	for _, n := range sizes {
		if n > 1 {
			counts[n]++
		}
	}
	total := 0
	for n, c := range counts {
		total += c / n
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
