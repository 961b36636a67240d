// Package scheduler assigns each job a per-department time window under the
// capacity model's constraints. Backward placement works from the due date
// toward today for on-time jobs; forward placement walks overdue jobs from
// today through their remaining departments.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/capacity"
	"github.com/dsifab/fabsched/internal/duration"
	"github.com/dsifab/fabsched/internal/entity"
)

// Scheduler runs placement over a capacity model. It holds no mutable state;
// every pass builds its own ledger.
type Scheduler struct {
	model  *capacity.Model
	cal    calendar.Calendar
	calc   *duration.Calculator
	score  UrgencyScorer
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger used for pass diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithUrgencyScorer injects the urgency scorer used for priority ordering.
func WithUrgencyScorer(u UrgencyScorer) Option {
	return func(s *Scheduler) { s.score = u }
}

// New creates a Scheduler over the given model.
func New(model *capacity.Model, opts ...Option) *Scheduler {
	s := &Scheduler{
		model: model,
		cal:   calendar.Calendar{SaturdayOvertime: model.SaturdayOvertime},
		calc:  duration.NewCalculator(model),
		score: DefaultUrgencyScorer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// sizeTier gap between consecutive departments, in business days of cursor
// movement: big rocks leave a full free day, medium jobs hand off on adjacent
// days, small jobs may share the handoff day.
func (s *Scheduler) gapStep(pointsCp int64, noGaps bool) int {
	if noGaps {
		return 0
	}
	switch {
	case pointsCp >= s.model.BigRockThresholdCp():
		return 2
	case pointsCp >= s.model.MediumThresholdCp():
		return 1
	}
	return 0
}

// durationInput builds the calculator input for one department of a job.
func durationInput(j *entity.Job, dept constants.Department, batchSize int) duration.Input {
	return duration.Input{
		Department:       dept,
		Points:           j.WeldingPoints,
		ProductType:      j.ProductType,
		Description:      j.Description,
		JobName:          j.JobName,
		RequiresPainting: j.RequiresPainting,
		CustomerName:     j.CustomerName,
		BatchSize:        batchSize,
		Quantity:         j.Quantity,
	}
}

// sameDayOverloaded reports whether adding a window for one more department
// would exceed the per-job cap on simultaneously active departments.
func (s *Scheduler) sameDayOverloaded(active map[string]int, start time.Time, days int) bool {
	d := s.cal.NextWorkday(start)
	for i := 0; i < days; i++ {
		if active[calendar.DateKey(d)] >= s.model.SameDayDepartmentCap {
			return true
		}
		d = s.cal.AddBusinessDays(d, 1)
	}
	return false
}

func markActive(cal calendar.Calendar, active map[string]int, start time.Time, days int) {
	d := cal.NextWorkday(start)
	for i := 0; i < days; i++ {
		active[calendar.DateKey(d)]++
		d = cal.AddBusinessDays(d, 1)
	}
}

// backwardFromDue places a job's full pipeline working backward from its due
// date minus the delivery buffer. Capacity misses shift the whole block
// earlier, one business day per attempt; when the attempts run out the
// block is committed where it was last proposed and the job is flagged
// conflicted.
func (s *Scheduler) backwardFromDue(j *entity.Job, batchSize int, led *capacity.Ledger, today time.Time) *entity.Job {
	out := j.Clone()
	out.DepartmentSchedule = make(map[constants.Department]*entity.DepartmentWindow, len(constants.PipelineOrder))
	out.IsOverdue = false
	out.SchedulingConflict = false

	effCp := duration.EffectivePointsCp(j.WeldingPoints, batchSize)
	gap := s.gapStep(capacity.Cp(j.WeldingPoints), j.NoGaps)
	today = s.cal.NextWorkday(today)

	cursor := s.cal.AddBusinessDays(s.cal.PrevWorkday(j.DueDate), -s.model.BufferDays)
	active := make(map[string]int)
	conflict := false

	for i := len(constants.PipelineOrder) - 1; i >= 0; i-- {
		dept := constants.PipelineOrder[i]
		days := s.calc.HalfDays(durationInput(j, dept, batchSize)).DaysCeil()
		if days < 1 {
			days = 1
		}

		end := cursor
		start := s.cal.AddBusinessDays(end, -(days - 1))
		placed := false
		for attempt := 0; attempt < s.model.MaxShiftAttempts; attempt++ {
			res := capacity.Reservation{
				Department: dept,
				Start: start,
				Days: days,
				TotalCp: effCp,
				ProductType: j.ProductType,
				JobID: j.ID.String(),
			}
			if !s.sameDayOverloaded(active, start, days) && led.CanFit(res) {
				led.Reserve(res)
				placed = true
				break
			}
			end = s.cal.AddBusinessDays(end, -1)
			start = s.cal.AddBusinessDays(start, -1)
		}
		if !placed {
			// Capacity exhaustion is never a hard error: commit the
			// best-effort block and surface the conflict as data.
			end = cursor
			start = s.cal.AddBusinessDays(end, -(days - 1))
			led.Reserve(capacity.Reservation{
				Department: dept,
				Start: start,
				Days: days,
				TotalCp: effCp,
				ProductType: j.ProductType,
				JobID: j.ID.String(),
			})
			conflict = true
		}

		out.DepartmentSchedule[dept] = &entity.DepartmentWindow{Start: start, End: s.cal.WindowEnd(start, days)}
		markActive(s.cal, active, start, days)

		if gap == 0 {
			cursor = start
		} else {
			cursor = s.cal.AddBusinessDays(start, -gap)
		}
	}

	engStart := out.DepartmentSchedule[constants.DeptEngineering].Start
	out.StartDate = &engStart

	for _, w := range out.DepartmentSchedule {
		if w.Start.Before(today) {
			conflict = true
			break
		}
	}

	out.SchedulingConflict = conflict
	if conflict {
		out.ProgressStatus = constants.ProgressStalled
	} else {
		out.ProgressStatus = constants.ProgressOnTrack
	}
	s.finishSchedule(out)
	return out
}

// forwardFromToday places an overdue job's remaining departments starting at
// today, walking forward from its current department. Overdue jobs are
// already broken promises, so they always carry both soft flags.
func (s *Scheduler) forwardFromToday(j *entity.Job, batchSize int, led *capacity.Ledger, today time.Time) *entity.Job {
	out := j.Clone()
	out.DepartmentSchedule = make(map[constants.Department]*entity.DepartmentWindow, len(constants.PipelineOrder))
	out.IsOverdue = true
	out.SchedulingConflict = true

	effCp := duration.EffectivePointsCp(j.WeldingPoints, batchSize)
	gap := s.gapStep(capacity.Cp(j.WeldingPoints), j.NoGaps)

	startIdx := j.CurrentDepartment.Index()
	if startIdx < 0 {
		startIdx = 0
	}

	cursor := s.cal.NextWorkday(today)
	active := make(map[string]int)

	for i := startIdx; i < len(constants.PipelineOrder); i++ {
		dept := constants.PipelineOrder[i]
		days := s.calc.HalfDays(durationInput(j, dept, batchSize)).DaysCeil()
		if days < 1 {
			days = 1
		}

		start := cursor
		placed := false
		for attempt := 0; attempt < s.model.MaxShiftAttempts; attempt++ {
			res := capacity.Reservation{
				Department: dept,
				Start: start,
				Days: days,
				TotalCp: effCp,
				ProductType: j.ProductType,
				JobID: j.ID.String(),
			}
			if !s.sameDayOverloaded(active, start, days) && led.CanFit(res) {
				led.Reserve(res)
				placed = true
				break
			}
			start = s.cal.AddBusinessDays(start, 1)
		}
		if !placed {
			start = cursor
			led.Reserve(capacity.Reservation{
				Department: dept,
				Start: start,
				Days: days,
				TotalCp: effCp,
				ProductType: j.ProductType,
				JobID: j.ID.String(),
			})
		}

		end := s.cal.WindowEnd(start, days)
		out.DepartmentSchedule[dept] = &entity.DepartmentWindow{Start: start, End: end}
		markActive(s.cal, active, start, days)

		if gap == 0 {
			cursor = end
		} else {
			cursor = s.cal.AddBusinessDays(end, gap)
		}
	}

	first := out.DepartmentSchedule[constants.PipelineOrder[startIdx]].Start
	out.StartDate = &first
	s.finishSchedule(out)
	return out
}

// finishSchedule derives the remaining-schedule view and the expected-today
// map from the full department schedule.
func (s *Scheduler) finishSchedule(j *entity.Job) {
	curIdx := j.CurrentDepartment.Index()

	j.RemainingDepartmentSchedule = make(map[constants.Department]*entity.DepartmentWindow)
	j.ScheduledDepartmentByDate = make(map[string]constants.Department)

	for i, dept := range constants.PipelineOrder {
		w, ok := j.DepartmentSchedule[dept]
		if !ok {
			continue
		}
		if curIdx < 0 || i >= curIdx {
			cw := *w
			j.RemainingDepartmentSchedule[dept] = &cw
		}
		for _, day := range s.cal.WorkdaysInWindow(w.Start, w.End) {
			key := calendar.DateKey(day)
			if _, seen := j.ScheduledDepartmentByDate[key]; !seen {
				j.ScheduledDepartmentByDate[key] = dept
			}
		}
	}
}
