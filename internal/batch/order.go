package batch

import (
	"sort"

	"github.com/google/uuid"

	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/entity"
)

// Cohort is a group of jobs that can run as one batch: same category, same
// due week, and (for strict cohorts) same gauge and material.
type Cohort struct {
	Strict   bool
	Week     string
	Jobs     []*entity.Job
	earliest int64 // earliest member due date, unix
	urgency  float64
	points   float64
}

type cohortKey struct {
	category string
	gauge    string
	material string
	week     string
}

// GroupAndOrder groups schedulable jobs into batch cohorts and flattens them
// back into one deterministic priority sequence: due-week ascending, earliest
// due date, strict before relaxed, highest urgency, largest points.
//
// The returned size map gives each job its cohort size, which drives the
// batch duration discount.
func GroupAndOrder(jobs []*entity.Job) (ordered []*entity.Job, sizes map[uuid.UUID]int, cohorts int) {
	groups := make(map[cohortKey]*Cohort)
	var keys []cohortKey

	for _, j := range jobs {
		cls := Classify(j.Description)
		week := calendar.WeekKey(j.DueDate)

		var key cohortKey
		strict := false
		switch {
		case cls.Matched && cls.Gauge != "" && cls.Material != "":
			key = cohortKey{string(cls.Category), cls.Gauge, cls.Material, week}
			strict = true
		case cls.Matched:
			key = cohortKey{category: string(cls.Category), week: week}
		default:
			// Unmatched jobs are singleton cohorts.
			key = cohortKey{category: "job:" + j.ID.String(), week: week}
		}

		g, ok := groups[key]
		if !ok {
			g = &Cohort{Strict: strict, Week: week, earliest: j.DueDate.Unix()}
			groups[key] = g
			keys = append(keys, key)
		}
		g.Jobs = append(g.Jobs, j)
		if due := j.DueDate.Unix(); due < g.earliest {
			g.earliest = due
		}
		if j.UrgencyScore > g.urgency {
			g.urgency = j.UrgencyScore
		}
		g.points += j.WeldingPoints
	}

	list := make([]*Cohort, 0, len(groups))
	for _, k := range keys {
		list = append(list, groups[k])
	}
	sort.SliceStable(list, func(a, b int) bool {
		ga, gb := list[a], list[b]
		if ga.Week != gb.Week {
			return ga.Week < gb.Week
		}
		if ga.earliest != gb.earliest {
			return ga.earliest < gb.earliest
		}
		if ga.Strict != gb.Strict {
			return ga.Strict
		}
		if ga.urgency != gb.urgency {
			return ga.urgency > gb.urgency
		}
		if ga.points != gb.points {
			return ga.points > gb.points
		}
		return cohortTiebreak(ga) < cohortTiebreak(gb)
	})

	sizes = make(map[uuid.UUID]int, len(jobs))
	for _, g := range list {
		sort.SliceStable(g.Jobs, func(a, b int) bool {
			ja, jb := g.Jobs[a], g.Jobs[b]
			if !ja.DueDate.Equal(jb.DueDate) {
				return ja.DueDate.Before(jb.DueDate)
			}
			if ja.WeldingPoints != jb.WeldingPoints {
				return ja.WeldingPoints > jb.WeldingPoints
			}
			return ja.JobNumber < jb.JobNumber
		})
		batched := len(g.Jobs) > 1
		for _, j := range g.Jobs {
			ordered = append(ordered, j)
			if batched {
				sizes[j.ID] = len(g.Jobs)
			} else {
				sizes[j.ID] = 1
			}
		}
		if batched {
			cohorts++
		}
	}
	return ordered, sizes, cohorts
}

func cohortTiebreak(g *Cohort) string {
	best := ""
	for _, j := range g.Jobs {
		if best == "" || j.JobNumber < best {
			best = j.JobNumber
		}
	}
	return best
}
