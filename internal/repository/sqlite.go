package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/entity"
)

// SQLiteStore is the embedded JobStore for single-host installs that don't
// run Postgres. Same table, same whole-result write discipline.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open sqlite store")
	}
	// Serialized writes: the whole-result save must not interleave with
	// another run's save.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, common.WrapError(err, "ensure jobs schema")
	}
	logger.Info("sqlite job store ready", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) LoadCommittedJobs(ctx context.Context) ([]*entity.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM jobs WHERE completed = 0 ORDER BY due_date, job_number`)
	if err != nil {
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

func (s *SQLiteStore) SaveScheduledJobs(ctx context.Context, jobs []*entity.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin save")
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, j := range jobs {
		payload, err := json.Marshal(j)
		if err != nil {
			return common.WrapError(err, "marshal job "+j.JobNumber)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO jobs (id, job_number, customer, product_type, due_date, completed, payload, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (job_number) DO UPDATE SET
				customer = excluded.customer,
				product_type = excluded.product_type,
				due_date = excluded.due_date,
				completed = excluded.completed,
				payload = excluded.payload,
				updated_at = excluded.updated_at`,
			j.ID.String(), j.JobNumber, j.CustomerName, string(j.ProductType),
			j.DueDate.UTC().Format("2006-01-02"), j.Completed, payload, now)
		if err != nil {
			return common.WrapError(err, "upsert job "+j.JobNumber)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobNumber string) (*entity.Job, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM jobs WHERE job_number = ?`, jobNumber).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) MarkCompleted(ctx context.Context, jobNumber string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET completed = 1, updated_at = ? WHERE job_number = ?`,
		time.Now().UTC().Format(time.RFC3339), jobNumber)
	if err != nil {
		return common.WrapError(err, "mark completed "+jobNumber)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
