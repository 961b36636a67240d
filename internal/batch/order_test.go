package batch

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dsifab/fabsched/internal/entity"
)

func testJob(number, desc string, due time.Time, points float64) *entity.Job {
	return &entity.Job{
		ID:            uuid.New(),
		JobNumber:     number,
		Description:   desc,
		DueDate:       due,
		WeldingPoints: points,
	}
}

func TestStrictCohortSharesSetup(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	a := testJob("J-100", "KD frames 16ga SS304", due, 10)
	b := testJob("J-101", "KD frames 16ga SS304", due, 8)
	c := testJob("J-102", "stainless countertop", due, 12)

	ordered, sizes, cohorts := GroupAndOrder([]*entity.Job{c, b, a})

	if cohorts != 1 {
		t.Fatalf("cohorts = %d, want 1", cohorts)
	}
	if sizes[a.ID] != 2 || sizes[b.ID] != 2 {
		t.Fatalf("cohort members should have size 2, got %d %d", sizes[a.ID], sizes[b.ID])
	}
	if sizes[c.ID] != 1 {
		t.Fatalf("singleton size = %d, want 1", sizes[c.ID])
	}

	// Cohort members stay contiguous in the flattened order.
	pos := make(map[string]int)
	for i, j := range ordered {
		pos[j.JobNumber] = i
	}
	if d := pos["J-101"] - pos["J-100"]; d != 1 {
		t.Fatalf("cohort members not adjacent: %v", pos)
	}
}

func TestDifferentGaugeBreaksStrictCohort(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	a := testJob("J-100", "KD frames 16ga SS304", due, 10)
	b := testJob("J-101", "KD frames 14ga SS304", due, 8)

	_, sizes, cohorts := GroupAndOrder([]*entity.Job{a, b})
	if cohorts != 0 {
		t.Fatalf("cohorts = %d, want 0", cohorts)
	}
	if sizes[a.ID] != 1 || sizes[b.ID] != 1 {
		t.Fatal("mismatched gauge should not batch")
	}
}

func TestRelaxedCohortWithoutTokens(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	a := testJob("J-100", "KD frames", due, 10)
	b := testJob("J-101", "knock down frames", due, 8)

	_, sizes, cohorts := GroupAndOrder([]*entity.Job{a, b})
	if cohorts != 1 {
		t.Fatalf("cohorts = %d, want 1", cohorts)
	}
	if sizes[a.ID] != 2 {
		t.Fatalf("relaxed cohort size = %d, want 2", sizes[a.ID])
	}
}

func TestDifferentWeekBreaksCohort(t *testing.T) {
	a := testJob("J-100", "KD frames 16ga SS304", time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), 10)
	b := testJob("J-101", "KD frames 16ga SS304", time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC), 8)

	_, _, cohorts := GroupAndOrder([]*entity.Job{a, b})
	if cohorts != 0 {
		t.Fatalf("cohorts = %d, want 0", cohorts)
	}
}

func TestOrderIsByWeekThenDue(t *testing.T) {
	late := testJob("J-200", "misc bracket", time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC), 5)
	early := testJob("J-201", "misc panel", time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC), 5)
	mid := testJob("J-202", "misc shelf", time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), 5)

	ordered, _, _ := GroupAndOrder([]*entity.Job{late, early, mid})
	want := []string{"J-201", "J-202", "J-200"}
	for i, num := range want {
		if ordered[i].JobNumber != num {
			t.Fatalf("ordered[%d] = %s, want %s", i, ordered[i].JobNumber, num)
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	jobs := []*entity.Job{
		testJob("J-103", "lock seam doors 18ga galv", due, 6),
		testJob("J-101", "KD frames 16ga SS304", due, 10),
		testJob("J-104", "lock seam doors 18ga galv", due, 6),
		testJob("J-102", "KD frames 16ga SS304", due, 10),
		testJob("J-105", "misc weldment", due, 40),
	}

	first, _, _ := GroupAndOrder(jobs)
	for run := 0; run < 5; run++ {
		again, _, _ := GroupAndOrder(jobs)
		for i := range first {
			if first[i].JobNumber != again[i].JobNumber {
				t.Fatalf("run %d: order diverged at %d: %s vs %s",
					run, i, first[i].JobNumber, again[i].JobNumber)
			}
		}
	}
}
