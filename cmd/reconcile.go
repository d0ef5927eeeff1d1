package cmd

import (
	"context"
	"fmt"

	"github.com/Candra0x6/Inventy-sub003/core/config"
	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	reconcileApply bool
	reconcileItem  string
)

// reconcileCmd reconciles item statuses against reservations from the CLI.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile item statuses against reservations",
	Long: `Recomputes the status every item should have from its open
reservations and reports drift. With --apply the recommended statuses are
written, each with an audit log entry.

Examples:
  # Report drift across all items
  brocy reconcile

  # Report one item
  brocy reconcile --item 4f7c...

  # Apply the recommendations
  brocy reconcile --apply`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileApply, "apply", false, "Write the recommended statuses")
	reconcileCmd.Flags().StringVar(&reconcileItem, "item", "", "Reconcile a single item id")
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
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

	engine := reconcile.NewEngine(db, reconcile.NewMemLocker(), l)

	ids, err := targetItems(db)
	if err != nil {
		return err
	}

	var drifted, applied int
	for _, id := range ids {
		rec, err := engine.Recommend(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to inspect item %s: %w", id, err)
		}
		if !rec.DriftDetected {
			continue
		}
		drifted++
		l.Info("Status drift",
			zap.String("item_id", rec.ItemID),
			zap.String("current", string(rec.CurrentStatus)),
			zap.String("recommended", string(rec.RecommendedStatus)),
		)

		if !reconcileApply {
			continue
		}
		// Completed is a neutral trigger for an operator-driven pass.
		if _, err := engine.Reconcile(ctx, id, models.ReservationCompleted, "cli", "manual reconciliation"); err != nil {
			return fmt.Errorf("failed to reconcile item %s: %w", id, err)
		}
		applied++
	}

	l.Info("Reconciliation finished",
		zap.Int("items_checked", len(ids)),
		zap.Int("drift_detected", drifted),
		zap.Int("applied", applied),
		zap.Bool("dry_run", !reconcileApply),
	)
	return nil
}

// targetItems resolves the item ids to inspect.
func targetItems(db *gorm.DB) ([]string, error) {
	if reconcileItem != "" {
		return []string{reconcileItem}, nil
	}
	var ids []string
	if err := db.Model(&models.Item{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return ids, nil
}
