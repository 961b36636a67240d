package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/capacity"
	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/entity"
	"github.com/dsifab/fabsched/internal/export"
	"github.com/dsifab/fabsched/internal/feasibility"
	"github.com/dsifab/fabsched/internal/ingest"
	"github.com/dsifab/fabsched/internal/repository"
	"github.com/dsifab/fabsched/internal/scheduler"
)

// env is the per-command wiring: one store, one model, one logger.
type env struct {
	cfg    *common.Config
	model  *capacity.Model
	store  repository.JobStore
	logger *slog.Logger
}

func setup(ctx context.Context) (*env, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	model := capacity.DefaultModel()
	if cfg.Scheduler.DepartmentConfigPath != "" {
		m, err := capacity.LoadModel(cfg.Scheduler.DepartmentConfigPath)
		if err != nil {
			return nil, fmt.Errorf("loading department config: %w", err)
		}
		model = m
	}
	model.SaturdayOvertime = cfg.Scheduler.SaturdayOvertime

	store, err := repository.NewStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening job store: %w", err)
	}
	return &env{cfg: cfg, model: model, store: store, logger: logger}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing job store", "error", err)
	}
}

func parseDayFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newImportCommand() *cobra.Command {
	var sheet string
	var out string

	cmd := &cobra.Command{
		Use:   "import [workbook.xlsx]",
		Short: "Parse a JCS workbook into jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ingest.ParseWorkbook(args[0], sheet)
			if err != nil {
				return err
			}
			fmt.Printf("parsed %d rows, %d jobs, %d warnings\n",
				result.Rows, len(result.Jobs), len(result.Warnings))
			for _, w := range result.Warnings {
				fmt.Printf("  row %d: %s\n", w.Row, w.Reason)
			}
			if out == "" {
				return nil
			}
			data, err := json.MarshalIndent(result.Jobs, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0644)
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "worksheet name (default: first sheet)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write parsed jobs as JSON to this file")
	return cmd
}

func newScheduleCommand() *cobra.Command {
	var jobsFile string
	var workbook string
	var sheet string
	var today string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a scheduling pass over new jobs plus the committed book",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayFlag(today)
			if err != nil {
				return err
			}

			var newJobs []*entity.Job
			switch {
			case jobsFile != "" && workbook != "":
				return fmt.Errorf("use either --jobs or --workbook, not both")
			case jobsFile != "":
				data, err := os.ReadFile(jobsFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &newJobs); err != nil {
					return fmt.Errorf("parsing %s: %w", jobsFile, err)
				}
			case workbook != "":
				result, err := ingest.ParseWorkbook(workbook, sheet)
				if err != nil {
					return err
				}
				for _, w := range result.Warnings {
					fmt.Fprintf(os.Stderr, "row %d: %s\n", w.Row, w.Reason)
				}
				newJobs = result.Jobs
			}

			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			committed, err := e.store.LoadCommittedJobs(cmd.Context())
			if err != nil {
				return err
			}

			sched := scheduler.New(e.model, scheduler.WithLogger(e.logger))
			result := sched.ScheduleAll(newJobs, committed, day)

			if !dryRun {
				if err := e.store.SaveScheduledJobs(cmd.Context(), result.Jobs); err != nil {
					return err
				}
			}

			ins := result.Insights
			fmt.Printf("scheduled %d jobs (%d skipped, %d conflicts, %d overdue, %d big rocks, %d cohorts)\n",
				ins.JobsScheduled, ins.JobsSkipped, ins.Conflicts, ins.OverdueJobs, ins.BigRocks, ins.BatchCohorts)
			for _, w := range ins.Warnings {
				fmt.Printf("  %s: %s\n", w.JobNumber, w.Reason)
			}
			if dryRun {
				fmt.Println("dry run: nothing saved")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobsFile, "jobs", "j", "", "JSON file of new jobs")
	cmd.Flags().StringVarP(&workbook, "workbook", "w", "", "JCS workbook of new jobs")
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "worksheet name for --workbook")
	cmd.Flags().StringVarP(&today, "today", "t", "", "scheduling day (default: today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute but do not save")
	return cmd
}

func newFeasibilityCommand() *cobra.Command {
	var quoteFile string
	var target string

	cmd := &cobra.Command{
		Use:   "feasibility",
		Short: "Run the three-tier feasibility check for a quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(quoteFile)
			if err != nil {
				return err
			}
			var quote entity.QuoteRequest
			if err := json.Unmarshal(data, &quote); err != nil {
				return fmt.Errorf("parsing %s: %w", quoteFile, err)
			}
			targetDay := quote.TargetDate
			if target != "" {
				if targetDay, err = parseDayFlag(target); err != nil {
					return err
				}
			}

			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			committed, err := e.store.LoadCommittedJobs(cmd.Context())
			if err != nil {
				return err
			}

			report, err := feasibility.New(e.model, e.logger).CheckFeasibility(&quote, committed, targetDay)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().StringVarP(&quoteFile, "quote", "q", "", "JSON quote request file")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target date override (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("quote")
	return cmd
}

func newBufferCommand() *cobra.Command {
	var asOf string
	var out string

	cmd := &cobra.Command{
		Use:   "buffer",
		Short: "Report days of queued work per department",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayFlag(asOf)
			if err != nil {
				return err
			}

			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			committed, err := e.store.LoadCommittedJobs(cmd.Context())
			if err != nil {
				return err
			}
			buffer := scheduler.New(e.model, scheduler.WithLogger(e.logger)).QueueBufferDays(committed, day)
			for _, dept := range constants.PipelineOrder {
				fmt.Printf("%-12s %6.1f days\n", dept.DisplayName(), buffer[dept])
			}
			if out == "" {
				return nil
			}
			data, err := export.NewService(e.logger).ExportBufferXLSX(buffer, day)
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0644)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference day (default: today)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "also write the report as an XLSX workbook")
	return cmd
}

func newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the committed schedule to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			committed, err := e.store.LoadCommittedJobs(cmd.Context())
			if err != nil {
				return err
			}
			data, err := export.NewService(e.logger).ExportScheduleXLSX(committed)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %d jobs to %s\n", len(committed), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "schedule.xlsx", "output file")
	return cmd
}
