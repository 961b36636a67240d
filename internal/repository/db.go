package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsifab/fabsched/internal/common"
)

// NewStore opens the job store named by cfg.Driver.
func NewStore(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (JobStore, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := OpenPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := HealthCheck(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresStore(ctx, pool, logger)
	case "sqlite", "":
		return NewSQLiteStore(ctx, cfg.DSN, logger)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// OpenPool creates a pgx pool from database configuration.
func OpenPool(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "fabsched"

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

// HealthCheck pings the pool to catch DSN issues early.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return common.WrapError(err, "database health check")
	}
	return nil
}
