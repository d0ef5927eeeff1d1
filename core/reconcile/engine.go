package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/audit"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrItemNotFound signals that the item does not exist, distinct from a
	// malformed request.
	ErrItemNotFound = errors.New("item not found")
	// ErrMissingReservationStatus signals that the triggering reservation
	// status was absent or unknown.
	ErrMissingReservationStatus = errors.New("reservationStatus is required and must be a known status")
)

// leaseTTL bounds how long a crashed reconciliation can block an item.
const leaseTTL = 10 * time.Second

// Recommendation is the read-only drift report for one item.
type Recommendation struct {
	ItemID            string            `json:"itemId"`
	CurrentStatus     models.ItemStatus `json:"currentStatus"`
	RecommendedStatus models.ItemStatus `json:"recommendedStatus"`
	DriftDetected     bool              `json:"driftDetected"`
}

// Outcome reports an applied reconciliation.
type Outcome struct {
	ItemID         string            `json:"itemId"`
	PreviousStatus models.ItemStatus `json:"previousStatus"`
	NewStatus      models.ItemStatus `json:"newStatus"`
	Changed        bool              `json:"changed"`
}

// Engine applies the status projection against the persistence layer.
type Engine struct {
	db     *gorm.DB
	locker Locker
	logger *zap.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(db *gorm.DB, locker Locker, logger *zap.Logger) *Engine {
	return &Engine{db: db, locker: locker, logger: logger}
}

// Recommend computes the projected status for an item without writing.
// Calling it twice with no intervening writes yields identical output and
// zero new audit rows.
func (e *Engine) Recommend(ctx context.Context, itemID string) (*Recommendation, error) {
	var item models.Item
	if err := e.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	reservations, err := e.openReservations(e.db.WithContext(ctx), itemID)
	if err != nil {
		return nil, err
	}

	recommended := DeriveStatus(item.Status, reservations)
	return &Recommendation{
		ItemID:            item.ID,
		CurrentStatus:     item.Status,
		RecommendedStatus: recommended,
		DriftDetected:     recommended != item.Status,
	}, nil
}

// Reconcile recomputes and applies the item's status after a reservation
// status change. The item update and the audit log row commit atomically;
// nothing else is written. reservationStatus names the transition that
// triggered the call and must be a known status.
func (e *Engine) Reconcile(ctx context.Context, itemID string, reservationStatus models.ReservationStatus, actingUserID, reason string) (*Outcome, error) {
	if !models.ValidReservationStatus(reservationStatus) {
		return nil, ErrMissingReservationStatus
	}

	release, err := e.locker.Acquire(ctx, itemID, leaseTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	var out Outcome
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, itemID)
		if err != nil {
			return err
		}

		reservations, err := e.openReservations(tx, itemID)
		if err != nil {
			return err
		}

		derived := DeriveStatus(item.Status, reservations)
		out = Outcome{
			ItemID:         item.ID,
			PreviousStatus: item.Status,
			NewStatus:      derived,
			Changed:        derived != item.Status,
		}
		if !out.Changed {
			return nil
		}

		if err := tx.Model(&models.Item{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{"status": derived, "updated_at": time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("failed to update item status: %w", err)
		}

		return audit.Record(tx, audit.Entry{
			Action:     audit.ActionStatusReconciled,
			EntityType: "item",
			EntityID:   item.ID,
			UserID:     actingUserID,
			Changes: map[string]any{
				"field":             "status",
				"from":              item.Status,
				"to":                derived,
				"reservationStatus": reservationStatus,
				"reason":            reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if out.Changed {
		e.logger.Info("item status reconciled",
			zap.String("item_id", out.ItemID),
			zap.String("from", string(out.PreviousStatus)),
			zap.String("to", string(out.NewStatus)),
		)
	}
	return &out, nil
}

// openReservations loads the non-terminal reservations for an item.
func (e *Engine) openReservations(tx *gorm.DB, itemID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := tx.
		Where("item_id = ? AND status IN ?", itemID, models.NonTerminalReservationStatuses).
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	return reservations, nil
}

// lockItem reads the item row, FOR UPDATE where the dialect supports it.
func lockItem(tx *gorm.DB, itemID string) (*models.Item, error) {
	q := tx
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.Item
	if err := q.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}
