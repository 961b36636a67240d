// Package feasibility answers "can we accept this quote" in three tiers:
// as-is against current commitments, with low-risk moves of slack jobs, and
// with overtime. All three tiers run the same weekly-capacity simulation the
// scheduler's model implies; only the available headroom changes.
package feasibility

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/capacity"
	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/duration"
	"github.com/dsifab/fabsched/internal/entity"
)

// Analyzer simulates prospective quotes against committed work.
type Analyzer struct {
	model  *capacity.Model
	cal    calendar.Calendar
	calc   *duration.Calculator
	logger *slog.Logger
}

// New creates an Analyzer over the given model.
func New(model *capacity.Model, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		model:  model,
		cal:    calendar.Calendar{SaturdayOvertime: model.SaturdayOvertime},
		calc:   duration.NewCalculator(model),
		logger: logger,
	}
}

// moveSlackDays is the minimum schedule slack a committed job needs before
// tier 2 will consider pushing it, and the distance it gets pushed.
const moveSlackDays = 7

// searchHorizonDays bounds the earliest-slot scan per department.
const searchHorizonDays = 240

// weekLoads is consumed weekly capacity per department, bucketed by ISO week.
type weekLoads map[constants.Department]map[string]int64

func (w weekLoads) add(dept constants.Department, week string, cp int64) {
	m := w[dept]
	if m == nil {
		m = make(map[string]int64)
		w[dept] = m
	}
	m[week] += cp
}

func (w weekLoads) get(dept constants.Department, week string) int64 {
	return w[dept][week]
}

func (w weekLoads) clone() weekLoads {
	out := make(weekLoads, len(w))
	for dept, m := range w {
		cm := make(map[string]int64, len(m))
		for k, v := range m {
			cm[k] = v
		}
		out[dept] = cm
	}
	return out
}

// buildLoads distributes each committed job's points evenly across the
// business days its scheduled departments occupy.
func (a *Analyzer) buildLoads(committed []*entity.Job) weekLoads {
	loads := make(weekLoads)
	for _, j := range committed {
		if j == nil || j.Completed {
			continue
		}
		a.addJobLoads(loads, j, 0)
	}
	return loads
}

// addJobLoads adds one job's windows into loads, optionally shifted by
// shiftDays business days. Use removeJobLoads to subtract a job.
func (a *Analyzer) addJobLoads(loads weekLoads, j *entity.Job, shiftDays int) {
	cp := capacity.Cp(j.WeldingPoints)
	for _, dept := range constants.PipelineOrder {
		w, ok := j.DepartmentSchedule[dept]
		if !ok || w == nil {
			continue
		}
		start, end := w.Start, w.End
		if shiftDays != 0 {
			start = a.cal.AddBusinessDays(start, shiftDays)
			end = a.cal.AddBusinessDays(end, shiftDays)
		}
		days := a.cal.WorkdaysInWindow(start, end)
		if len(days) == 0 {
			continue
		}
		perDay := cp / int64(len(days))
		rem := cp % int64(len(days))
		for i, day := range days {
			load := perDay
			if i == 0 {
				load += rem
			}
			loads.add(dept, calendar.WeekKey(day), load)
		}
	}
}

func (a *Analyzer) removeJobLoads(loads weekLoads, j *entity.Job) {
	cp := capacity.Cp(j.WeldingPoints)
	for _, dept := range constants.PipelineOrder {
		w, ok := j.DepartmentSchedule[dept]
		if !ok || w == nil {
			continue
		}
		days := a.cal.WorkdaysInWindow(w.Start, w.End)
		if len(days) == 0 {
			continue
		}
		perDay := cp / int64(len(days))
		rem := cp % int64(len(days))
		for i, day := range days {
			load := perDay
			if i == 0 {
				load += rem
			}
			loads.add(dept, calendar.WeekKey(day), -load)
		}
	}
}

func (a *Analyzer) weeklyCapacityCp(dept constants.Department, bonusCp int64) int64 {
	dc := a.model.Dept(dept)
	if dc == nil {
		return 0
	}
	return dc.DailyCapacityCp()*5 + bonusCp
}

// simulate runs one quote piece through the pipeline against the given loads,
// reserving as it goes. The next department may start once roughly 30% of the
// previous department's duration has elapsed, plus the size-tiered gap.
func (a *Analyzer) simulate(q *entity.QuoteRequest, points float64, loads weekLoads, bonusCp int64) ([]entity.DepartmentSlot, time.Time, []constants.Department) {
	cp := capacity.Cp(points)
	gapHd := a.gapHalfDays(cp)

	var slots []entity.DepartmentSlot
	var bottlenecks []constants.Department
	var completion time.Time

	desired := a.cal.NextWorkday(q.EngineeringReady)
	var prevStart time.Time
	var prevHd calendar.HalfDays

	for i, dept := range constants.PipelineOrder {
		hd := a.calc.HalfDays(duration.Input{
			Department:   dept,
			Points:       points,
			ProductType:  q.ProductType,
			Description:  q.Description,
			CustomerName: q.CustomerName,
		})
		days := hd.DaysCeil()
		if days < 1 {
			days = 1
		}

		if i > 0 {
			// Pipelined start: 30% of the previous stage plus the gap.
			offsetHd := (prevHd*3+9)/10 + gapHd
			desired = a.cal.AddBusinessDays(prevStart, offsetHd.DaysCeil())
		}

		start := a.earliestSlot(dept, desired, days, cp, loads, bonusCp)
		if pushed := a.cal.BusinessDaysBetween(desired, start); pushed > 0 {
			bottlenecks = append(bottlenecks, dept)
		}

		a.reserve(dept, start, days, cp, loads)
		end := a.cal.WindowEnd(start, days)
		slots = append(slots, entity.DepartmentSlot{
			Department: dept,
			Start:      start,
			End:        end,
			Days:       float64(hd) / 2,
			PushedDays: a.cal.BusinessDaysBetween(desired, start),
		})
		if end.After(completion) {
			completion = end
		}
		prevStart, prevHd = start, hd
	}
	return slots, completion, bottlenecks
}

func (a *Analyzer) gapHalfDays(cp int64) calendar.HalfDays {
	switch {
	case cp >= a.model.BigRockThresholdCp():
		return calendar.FromDays(1)
	case cp >= a.model.MediumThresholdCp():
		return 1
	}
	return 0
}

// earliestSlot scans forward from desired for the first start date whose
// whole window fits under the weekly capacity ceiling.
func (a *Analyzer) earliestSlot(dept constants.Department, desired time.Time, days int, cp int64, loads weekLoads, bonusCp int64) time.Time {
	capWeek := a.weeklyCapacityCp(dept, bonusCp)
	start := a.cal.NextWorkday(desired)
	for attempt := 0; attempt < searchHorizonDays; attempt++ {
		if a.windowFits(dept, start, days, cp, loads, capWeek) {
			return start
		}
		start = a.cal.AddBusinessDays(start, 1)
	}
	return start
}

func (a *Analyzer) windowFits(dept constants.Department, start time.Time, days int, cp int64, loads weekLoads, capWeek int64) bool {
	perDay := cp / int64(days)
	rem := cp % int64(days)
	added := make(map[string]int64)
	d := a.cal.NextWorkday(start)
	for i := 0; i < days; i++ {
		load := perDay
		if i == 0 {
			load += rem
		}
		week := calendar.WeekKey(d)
		added[week] += load
		if loads.get(dept, week)+added[week] > capWeek {
			return false
		}
		d = a.cal.AddBusinessDays(d, 1)
	}
	return true
}

func (a *Analyzer) reserve(dept constants.Department, start time.Time, days int, cp int64, loads weekLoads) {
	perDay := cp / int64(days)
	rem := cp % int64(days)
	d := a.cal.NextWorkday(start)
	for i := 0; i < days; i++ {
		load := perDay
		if i == 0 {
			load += rem
		}
		loads.add(dept, calendar.WeekKey(d), load)
		d = a.cal.AddBusinessDays(d, 1)
	}
}

// pieces splits the quote into separately scheduled point loads.
func (a *Analyzer) pieces(q *entity.QuoteRequest) []float64 {
	if len(q.BigRockBreakdown) > 0 {
		out := make([]float64, 0, len(q.BigRockBreakdown))
		for _, dollars := range q.BigRockBreakdown {
			if dollars > 0 {
				out = append(out, a.model.PointsForDollars(q.ProductType, dollars))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []float64{a.model.PointsForDollars(q.ProductType, q.DollarValue)}
}

// runTier simulates every quote piece against a working copy of loads and
// folds the results into one TierResult.
func (a *Analyzer) runTier(q *entity.QuoteRequest, target time.Time, loads weekLoads, bonusCp int64) (entity.TierResult, []entity.DepartmentSlot) {
	work := loads.clone()
	var completion time.Time
	var slots []entity.DepartmentSlot
	seen := make(map[constants.Department]bool)
	var bottlenecks []constants.Department

	for _, points := range a.pieces(q) {
		ps, pc, pb := a.simulate(q, points, work, bonusCp)
		if pc.After(completion) {
			completion = pc
			slots = ps
		}
		for _, b := range pb {
			if !seen[b] {
				seen[b] = true
				bottlenecks = append(bottlenecks, b)
			}
		}
	}

	return entity.TierResult{
		Achievable:          !completion.After(calendar.Normalize(target)),
		ProjectedCompletion: completion,
		Bottlenecks:         bottlenecks,
	}, slots
}

// SimulateQuoteSchedule runs the as-is simulation and returns the proposed
// department slots for the quote.
func (a *Analyzer) SimulateQuoteSchedule(q *entity.QuoteRequest, committed []*entity.Job) (*entity.QuoteEstimate, error) {
	if err := a.validate(q); err != nil {
		return nil, err
	}
	loads := a.buildLoads(committed)
	tier, slots := a.runTier(q, q.TargetDate, loads, 0)

	var points float64
	for _, p := range a.pieces(q) {
		points += p
	}
	return &entity.QuoteEstimate{
		QuoteID:             q.QuoteID,
		Points:              points,
		Slots:               slots,
		ProjectedCompletion: tier.ProjectedCompletion,
		Achievable:          tier.Achievable,
		Bottlenecks:         tier.Bottlenecks,
	}, nil
}

// CheckFeasibility runs all three tiers and produces a recommendation.
func (a *Analyzer) CheckFeasibility(q *entity.QuoteRequest, committed []*entity.Job, target time.Time) (*entity.FeasibilityReport, error) {
	if target.IsZero() {
		target = q.TargetDate
	}
	if err := a.validate(q); err != nil {
		return nil, err
	}
	if target.IsZero() {
		return nil, common.NewAppError("FEASIBILITY", "target date is required", common.ErrInvalidInput)
	}

	loads := a.buildLoads(committed)
	report := &entity.FeasibilityReport{QuoteID: q.QuoteID, TargetDate: calendar.Normalize(target)}

	report.AsIs, _ = a.runTier(q, target, loads, 0)
	if report.AsIs.Achievable {
		report.Recommendation = constants.RecommendAccept
		report.Rationale = fmt.Sprintf("Capacity is available as scheduled; projected completion %s.",
			report.AsIs.ProjectedCompletion.Format("2006-01-02"))
		return report, nil
	}

	if moved := a.tierWithMoves(q, target, loads, committed); moved != nil {
		report.WithMoves = moved
		if moved.Achievable {
			report.Recommendation = constants.RecommendAcceptWithMoves
			report.Rationale = fmt.Sprintf("Achievable by pushing %d slack job(s) back %d business days; projected completion %s.",
				len(moved.MovedJobs), moveSlackDays, moved.ProjectedCompletion.Format("2006-01-02"))
			return report, nil
		}
	}

	if ot := a.tierWithOvertime(q, target, loads); ot != nil {
		report.WithOvertime = ot
		if ot.Achievable {
			report.Recommendation = constants.RecommendAcceptWithOT
			report.Rationale = fmt.Sprintf("Achievable with overtime tier %s (%s); projected completion %s.",
				ot.OvertimeTier, a.overtimeLabor(ot.OvertimeTier), ot.ProjectedCompletion.Format("2006-01-02"))
			return report, nil
		}
	}

	report.Recommendation = constants.RecommendDecline
	limit := "overall capacity"
	if len(report.AsIs.Bottlenecks) > 0 {
		limit = report.AsIs.Bottlenecks[0].DisplayName()
	}
	report.Rationale = fmt.Sprintf("Not achievable by %s: %s is the limiting department; earliest completion %s.",
		report.TargetDate.Format("2006-01-02"), limit,
		report.AsIs.ProjectedCompletion.Format("2006-01-02"))
	return report, nil
}

// tierWithMoves frees capacity by pushing back committed jobs that have at
// least a week of slack and are still in the two earliest departments, then
// reruns the as-is simulation.
func (a *Analyzer) tierWithMoves(q *entity.QuoteRequest, target time.Time, loads weekLoads, committed []*entity.Job) *entity.TierResult {
	work := loads.clone()
	var movedJobs []string
	for _, j := range committed {
		if j == nil || j.Completed {
			continue
		}
		end, ok := j.ScheduledEnd()
		if !ok {
			continue
		}
		if a.cal.BusinessDaysBetween(end, j.DueDate) < moveSlackDays {
			continue
		}
		idx := j.CurrentDepartment.Index()
		if idx < 0 || idx > 1 {
			continue
		}
		a.removeJobLoads(work, j)
		a.addJobLoads(work, j, moveSlackDays)
		movedJobs = append(movedJobs, j.JobNumber)
	}
	if len(movedJobs) == 0 {
		return nil
	}

	tier, _ := a.runTier(q, target, work, 0)
	tier.MovedJobs = movedJobs
	return &tier
}

// tierWithOvertime tries the overtime tiers from least to most, but only when
// no department is already over its base weekly capacity in the relevant date
// range: overtime cannot fix a structurally overloaded shop.
func (a *Analyzer) tierWithOvertime(q *entity.QuoteRequest, target time.Time, loads weekLoads) *entity.TierResult {
	if a.structurallyOverloaded(loads, q.EngineeringReady, target) {
		a.logger.Info("skipping overtime tier: shop already over base capacity",
			"quote", q.QuoteID)
		return nil
	}

	var best *entity.TierResult
	for _, ot := range a.model.OvertimeTiers {
		tier, _ := a.runTier(q, target, loads, int64(ot.WeeklyBonus)*100)
		tier.OvertimeTier = ot.Name
		best = &tier
		if tier.Achievable {
			break
		}
	}
	return best
}

func (a *Analyzer) structurallyOverloaded(loads weekLoads, from, to time.Time) bool {
	weeks := make(map[string]bool)
	for d := calendar.Normalize(from); !d.After(calendar.Normalize(to)); d = d.AddDate(0, 0, 7) {
		weeks[calendar.WeekKey(d)] = true
	}
	weeks[calendar.WeekKey(to)] = true

	for _, dept := range constants.PipelineOrder {
		base := a.weeklyCapacityCp(dept, 0)
		for week := range weeks {
			if loads.get(dept, week) > base {
				return true
			}
		}
	}
	return false
}

func (a *Analyzer) overtimeLabor(name string) string {
	for _, ot := range a.model.OvertimeTiers {
		if ot.Name == name {
			return ot.LaborDescription
		}
	}
	return ""
}

func (a *Analyzer) validate(q *entity.QuoteRequest) error {
	v := common.NewValidator()
	v.Field("quote_id", q.QuoteID, common.Required)
	v.Field("dollar_value", q.DollarValue, common.Positive)
	v.Field("product_type", q.ProductType, common.KnownProductType)
	v.Field("engineering_ready", q.EngineeringReady, common.Required)
	return v.Error()
}
