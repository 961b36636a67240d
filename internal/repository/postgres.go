package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/entity"
)

// PostgresStore is the JobStore over a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PostgresStore{pool: pool, logger: logger}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		return nil, common.WrapError(err, "ensure jobs schema")
	}
	return s, nil
}

func (s *PostgresStore) LoadCommittedJobs(ctx context.Context) ([]*entity.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM jobs WHERE completed = FALSE ORDER BY due_date, job_number`)
	if err != nil {
		s.logger.Error("failed to load committed jobs", "error", err)
		return nil, common.WrapError(err, "load committed jobs")
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, common.WrapError(err, "scan job payload")
		}
		var j entity.Job
		if err := json.Unmarshal(payload, &j); err != nil {
			s.logger.Warn("skipping unreadable job payload", "error", err)
			continue
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) SaveScheduledJobs(ctx context.Context, jobs []*entity.Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(err, "begin save")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC().Format(time.RFC3339)
	for _, j := range jobs {
		payload, err := json.Marshal(j)
		if err != nil {
			return common.WrapError(err, "marshal job "+j.JobNumber)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO jobs (id, job_number, customer, product_type, due_date, completed, payload, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (job_number) DO UPDATE SET
				customer = EXCLUDED.customer,
				product_type = EXCLUDED.product_type,
				due_date = EXCLUDED.due_date,
				completed = EXCLUDED.completed,
				payload = EXCLUDED.payload,
				updated_at = EXCLUDED.updated_at`,
			j.ID.String(), j.JobNumber, j.CustomerName, string(j.ProductType),
			j.DueDate.UTC().Format("2006-01-02"), j.Completed, payload, now)
		if err != nil {
			s.logger.Error("failed to upsert job", "job", j.JobNumber, "error", err)
			return common.WrapError(err, "upsert job "+j.JobNumber)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetJob(ctx context.Context, jobNumber string) (*entity.Job, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM jobs WHERE job_number = $1`, jobNumber).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "get job "+jobNumber)
	}
	var j entity.Job
	if err := json.Unmarshal(payload, &j); err != nil {
		return nil, common.WrapError(err, "decode job "+jobNumber)
	}
	return &j, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, jobNumber string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET completed = TRUE, updated_at = $2 WHERE job_number = $1`,
		jobNumber, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return common.WrapError(err, "mark completed "+jobNumber)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
