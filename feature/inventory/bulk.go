package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/audit"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxBulkSize caps how many items one bulk request may address.
const MaxBulkSize = 100

var (
	// ErrEmptyBatch rejects a bulk request with no item ids.
	ErrEmptyBatch = errors.New("itemIds must not be empty")
	// ErrBatchTooLarge rejects a bulk request above MaxBulkSize.
	ErrBatchTooLarge = fmt.Errorf("bulk request exceeds the maximum of %d items", MaxBulkSize)
	// ErrUnknownStatus rejects a bulk request with an unknown target status.
	ErrUnknownStatus = errors.New("status must be one of AVAILABLE, RESERVED, BORROWED, MAINTENANCE, RETIRED")
)

// MissingItemsError aborts the whole request when any requested id does not
// exist; no write happens and the missing ids are reported back.
type MissingItemsError struct {
	IDs []string
}

func (e *MissingItemsError) Error() string {
	return "items not found: " + strings.Join(e.IDs, ", ")
}

// BulkRequest is one bulk status transition.
type BulkRequest struct {
	ItemIDs []string          `json:"itemIds"`
	Status  models.ItemStatus `json:"status"`
	Reason  string            `json:"reason"`
}

// BulkUpdated describes one applied transition.
type BulkUpdated struct {
	ItemID         string            `json:"itemId"`
	PreviousStatus models.ItemStatus `json:"previousStatus"`
	NewStatus      models.ItemStatus `json:"newStatus"`
}

// BulkSkipped describes a no-op: the item already carried the target status.
type BulkSkipped struct {
	ItemID string `json:"itemId"`
	Status models.ItemStatus `json:"status"`
}

// BulkFailed describes a per-item conflict. It is part of a successful
// overall response, not an error.
type BulkFailed struct {
	ItemID                  string `json:"itemId"`
	Reason                  string `json:"reason"`
	ConflictingReservations int64  `json:"conflictingReservations"`
}

// BulkResult partitions the request into applied, skipped, and failed items.
// Requested counts the distinct items addressed, so the three partitions
// always sum to it.
type BulkResult struct {
	Requested int           `json:"-"`
	Updated   []BulkUpdated `json:"updated"`
	Skipped   []BulkSkipped `json:"skipped"`
	Failed    []BulkFailed  `json:"failed"`
}

// BulkSummary provides the aggregate counts of a bulk run.
type BulkSummary struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Summary computes the aggregate counts.
func (r *BulkResult) Summary() BulkSummary {
	return BulkSummary{
		Requested: r.Requested,
		Updated:   len(r.Updated),
		Skipped:   len(r.Skipped),
		Failed:    len(r.Failed),
	}
}

// blocksExplicitTarget reports whether moving to status must be refused for
// items with open reservations.
func blocksExplicitTarget(status models.ItemStatus) bool {
	return status == models.ItemRetired || status == models.ItemMaintenance
}

// BulkUpdateStatus validates and applies one status transition to a batch of
// items.
//
// The request as a whole is rejected, before any write, when the id list is
// empty or oversized, the status is unknown, or any requested id does not
// exist. Per item, an already-at-target item is skipped and a RETIRED or
// MAINTENANCE target conflicts with open reservations; everything else is
// accepted. Accepted items are applied in a single transaction: status and
// updated_at change, one audit row is written per item, and for RETIRED or
// MAINTENANCE targets every open reservation on the item is cancelled with a
// rejection reason naming the bulk operation. Any failure inside the
// transaction rolls back the entire batch.
func (s *Service) BulkUpdateStatus(ctx context.Context, req BulkRequest, actingUserID string) (*BulkResult, error) {
	if len(req.ItemIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(req.ItemIDs) > MaxBulkSize {
		return nil, ErrBatchTooLarge
	}
	if !models.ValidItemStatus(req.Status) {
		return nil, ErrUnknownStatus
	}

	// Repeated ids address the same item once; the partition and summary are
	// computed over the distinct set.
	ids := uniqueIDs(req.ItemIDs)

	db := s.db.WithContext(ctx)

	var items []models.Item
	if err := db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}

	if missing := missingIDs(ids, items); len(missing) > 0 {
		return nil, &MissingItemsError{IDs: missing}
	}

	conflicts, err := s.openReservationCounts(db, ids)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{
		Requested: len(ids),
		Updated:   []BulkUpdated{},
		Skipped:   []BulkSkipped{},
		Failed:    []BulkFailed{},
	}
	var accepted []models.Item

	for _, item := range items {
		switch {
		case item.Status == req.Status:
			result.Skipped = append(result.Skipped, BulkSkipped{ItemID: item.ID, Status: item.Status})
		case blocksExplicitTarget(req.Status) && conflicts[item.ID] > 0:
			result.Failed = append(result.Failed, BulkFailed{
				ItemID:                  item.ID,
				Reason:                  fmt.Sprintf("cannot move to %s with open reservations", req.Status),
				ConflictingReservations: conflicts[item.ID],
			})
		default:
			accepted = append(accepted, item)
		}
	}

	if len(accepted) == 0 {
		return result, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, item := range accepted {
			if err := tx.Model(&models.Item{}).
				Where("id = ?", item.ID).
				Updates(map[string]any{"status": req.Status, "updated_at": now}).Error; err != nil {
				return fmt.Errorf("failed to update item %s: %w", item.ID, err)
			}

			if err := audit.Record(tx, audit.Entry{
				Action:     audit.ActionBulkStatusUpdate,
				EntityType: "item",
				EntityID:   item.ID,
				UserID:     actingUserID,
				Changes: map[string]any{
					"field":         "status",
					"from":          item.Status,
					"to":            req.Status,
					"reason":        req.Reason,
					"bulkOperation": true,
				},
			}); err != nil {
				return err
			}

			if blocksExplicitTarget(req.Status) {
				rejection := fmt.Sprintf("Cancelled by bulk status update to %s", req.Status)
				if err := tx.Model(&models.Reservation{}).
					Where("item_id = ? AND status IN ?", item.ID, models.NonTerminalReservationStatuses).
					Updates(map[string]any{
						"status":           models.ReservationCancelled,
						"rejection_reason": rejection,
						"updated_at":       now,
					}).Error; err != nil {
					return fmt.Errorf("failed to cascade-cancel reservations of %s: %w", item.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range accepted {
		result.Updated = append(result.Updated, BulkUpdated{
			ItemID:         item.ID,
			PreviousStatus: item.Status,
			NewStatus:      req.Status,
		})
	}

	s.logger.Info("bulk status update applied",
		zap.Int("updated", len(result.Updated)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)),
		zap.String("target", string(req.Status)),
	)
	return result, nil
}

// uniqueIDs drops repeated ids, keeping first-occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// missingIDs returns the requested ids absent from the loaded items.
func missingIDs(requested []string, items []models.Item) []string {
	found := make(map[string]struct{}, len(items))
	for _, it := range items {
		found[it.ID] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// openReservationCounts loads the non-terminal reservation count per item in
// one grouped query.
func (s *Service) openReservationCounts(db *gorm.DB, itemIDs []string) (map[string]int64, error) {
	type row struct {
		ItemID string
		N      int64
	}
	var rows []row
	err := db.Model(&models.Reservation{}).
		Select("item_id, COUNT(*) AS n").
		Where("item_id IN ? AND status IN ?", itemIDs, models.NonTerminalReservationStatuses).
		Group("item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count open reservations: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ItemID] = r.N
	}
	return counts, nil
}
