package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/dsifab/fabsched/internal/capacity"
	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/export"
	"github.com/dsifab/fabsched/internal/feasibility"
	"github.com/dsifab/fabsched/internal/repository"
	"github.com/dsifab/fabsched/internal/scheduler"
	"github.com/dsifab/fabsched/internal/server"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slogger := slog.Default()

	// Capacity model, optionally overridden from JSON
	model := capacity.DefaultModel()
	if cfg.Scheduler.DepartmentConfigPath != "" {
		m, err := capacity.LoadModel(cfg.Scheduler.DepartmentConfigPath)
		if err != nil {
			log.Fatalf("loading department config: %v", err)
		}
		model = m
	}
	model.SaturdayOvertime = cfg.Scheduler.SaturdayOvertime

	// Job store
	store, err := repository.NewStore(ctx, cfg.Database, slogger)
	if err != nil {
		log.Fatalf("opening job store: %v", err)
	}
	defer store.Close()
	log.Infow("job store ready", "driver", cfg.Database.Driver)

	sched := scheduler.New(model, scheduler.WithLogger(slogger))
	analyzer := feasibility.New(model, slogger)
	exporter := export.NewService(slogger)

	srv := server.New(cfg.Server, store, sched, analyzer, exporter, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("http serve: %v", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	fmt.Println("stopped.")
}
