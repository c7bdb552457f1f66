package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/dataset"
	"github.com/workcal/availability/internal/store/sqlite"
	"go.uber.org/zap"
)

func runCmd() *cobra.Command {
	var (
		mode       string
		inputPath  string
		outputPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute availabilities for a dataset file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			runMode := cfg.Engine.GetMode()
			if mode != "" {
				if runMode, err = availability.ParseMode(mode); err != nil {
					return err
				}
			}
			if inputPath == "" {
				inputPath = cfg.Input.File
			}
			if outputPath == "" {
				outputPath = cfg.Output.File
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			national, err := loadNational(ctx, cfg.Calendar)
			if err != nil {
				return err
			}

			doc, err := dataset.Load(inputPath)
			if err != nil {
				return err
			}
			in, err := doc.Input(national)
			if err != nil {
				return err
			}

			start := time.Now()
			orchestrator := availability.NewOrchestrator(logger,
				availability.WithSkipInvalidRanges(cfg.Engine.SkipInvalidRanges))
			report, err := orchestrator.Run(runMode, in)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			printReport(report, time.Since(start))

			if dryRun {
				outPrintln("\n[DRY RUN] Output and history were not written")
				return nil
			}

			if err := dataset.WriteFile(outputPath, report.Records); err != nil {
				return err
			}
			outPrintf("\n✅ Wrote %d record(s) to %s\n", len(report.Records), outputPath)

			if cfg.Store.Path != "" {
				runID, err := saveRun(ctx, cfg.Store.Path, report)
				if err != nil {
					return err
				}
				outPrintf("📝 Run recorded as %s\n", runID)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Reporting mode: periods, projects, developer-periods, developer-periods-preaggregated")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input dataset (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the summary without writing output or history")

	return cmd
}

func saveRun(ctx context.Context, dbPath string, report *availability.Report) (string, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open run store: %w", err)
	}
	defer store.Close()

	run := &sqlite.Run{Mode: report.Mode, Records: report.Records}
	if err := store.SaveRun(ctx, run); err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("Run saved", zap.String("run_id", run.ID), zap.Int("records", run.RecordCount))
	return run.ID, nil
}

func printReport(report *availability.Report, took time.Duration) {
	outPrintf("\n📊 Availabilities (%s), %d record(s) in %s\n",
		report.Mode, len(report.Records), took.Round(time.Millisecond))
	outPrintln("═══════════════════════════════════════════════════════")
	outPrintln("  Period | Project | Developer | Total | Work | Weekend | Holiday | Feasible")
	outPrintln("---------+---------+-----------+-------+------+---------+---------+---------")
	for _, rec := range report.Records {
		outPrintf("  %6s | %7s | %9s | %5d | %4d | %7d | %7d | %s\n",
			idLabel(rec.PeriodID),
			idLabel(rec.ProjectID),
			idLabel(rec.DeveloperID),
			rec.TotalDays,
			rec.Workdays,
			rec.WeekendDays,
			rec.Holidays,
			feasibleLabel(rec.Feasibility))
	}

	if len(report.Capacity) > 0 {
		outPrintln("\n📅 Project capacity:")
		outPrintln("═══════════════════════════════════════════════════════")
		hundred := decimal.NewFromInt(100)
		for _, c := range report.Capacity {
			outPrintf("  Project %d: %d of %d day(s), coverage %s%%",
				c.ProjectID, c.CapacityDays, c.EffortDays,
				c.Coverage().Mul(hundred).StringFixed(1))
			if short := c.Shortfall(); short > 0 {
				outPrintf(", short by %d\n", short)
			} else {
				outPrintln()
			}
		}
	}

	if len(report.Skipped) > 0 {
		outPrintf("\n⚠️  Skipped %d combination(s):\n", len(report.Skipped))
		for _, s := range report.Skipped {
			outPrintf("  - %s\n", s.Reason)
		}
	}

	if len(report.Anomalies) > 0 {
		outPrintf("\n⚠️  %d record(s) with negative workdays:\n", len(report.Anomalies))
		for _, a := range report.Anomalies {
			outPrintf("  - %s\n", a.Error())
		}
	}
}

func idLabel(id *int) string {
	if id == nil {
		return "-"
	}
	return strconv.Itoa(*id)
}

func feasibleLabel(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}
