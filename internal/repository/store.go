// Package repository persists scheduled jobs. Every scheduling run reads the
// whole committed set, computes, and writes the whole result back; the store
// only has to make that write atomic (last-committed-wins).
package repository

import (
	"context"

	"github.com/dsifab/fabsched/internal/entity"
)

// JobStore loads and persists scheduled jobs.
type JobStore interface {
	// LoadCommittedJobs returns every non-completed job with its persisted
	// schedule.
	LoadCommittedJobs(ctx context.Context) ([]*entity.Job, error)
	// SaveScheduledJobs upserts the given jobs atomically.
	SaveScheduledJobs(ctx context.Context, jobs []*entity.Job) error
	// GetJob fetches one job by job number.
	GetJob(ctx context.Context, jobNumber string) (*entity.Job, error)
	// MarkCompleted retires a job's schedule.
	MarkCompleted(ctx context.Context, jobNumber string) error
	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error
	Close() error
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	job_number   TEXT NOT NULL UNIQUE,
	customer     TEXT NOT NULL DEFAULT '',
	product_type TEXT NOT NULL,
	due_date     TEXT NOT NULL,
	completed    BOOLEAN NOT NULL DEFAULT FALSE,
	payload      TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_due_date ON jobs (due_date);
CREATE INDEX IF NOT EXISTS jobs_completed ON jobs (completed);
`
