package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/config"
	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/metrics"
	"github.com/Candra0x6/Inventy-sub003/feature/overdue"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepDryRun bool

// sweepCmd runs one overdue sweep from the CLI, outside the scheduler.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one overdue sweep",
	Long: `Scans active reservations past their end date, sends the scheduled
notifications and applies trust score penalties for critically late returns.

Examples:
  # Report the overdue backlog without side effects
  brocy sweep --dry-run

  # Run the full sweep once
  brocy sweep`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "List the overdue backlog without notifying or penalizing")
	RootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sweeper := overdue.NewSweeper(db, &overdue.LogNotifier{Logger: l}, metrics.New(), l,
		time.Duration(cfg.Sweep.IdempotencyHours)*time.Hour)

	if sweepDryRun {
		entries, err := sweeper.Snapshot(ctx, time.Now())
		if err != nil {
			return err
		}
		l.Info("Overdue backlog", zap.Int("count", len(entries)))
		for _, e := range entries {
			l.Info("Overdue reservation",
				zap.String("reservation_id", e.Reservation.ID),
				zap.String("item_id", e.Reservation.ItemID),
				zap.String("user_id", e.Reservation.UserID),
				zap.Int("days_overdue", e.DaysOverdue),
				zap.Bool("critical", e.Critical),
			)
		}
		return nil
	}

	summary, err := sweeper.Run(ctx, time.Now())
	if err != nil {
		return err
	}

	l.Info("Sweep finished",
		zap.Int("total_overdue", summary.TotalOverdue),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("penalties_applied", summary.PenaltiesApplied),
		zap.Int("severity_low", summary.Severity.Low),
		zap.Int("severity_medium", summary.Severity.Medium),
		zap.Int("severity_high", summary.Severity.High),
	)
	return nil
}
