package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known audit actions. The sweep and the reconcile engine check the
// marker index by these names, so they are part of the data contract.
const (
	ActionStatusReconciled     = "RECONCILE_ITEM_STATUS"
	ActionBulkStatusUpdate     = "BULK_UPDATE_ITEM_STATUS"
	ActionOverdueNotification  = "SEND_OVERDUE_NOTIFICATION"
	ActionCriticalPenalty      = "APPLY_CRITICAL_OVERDUE_PENALTY"
	ActionReservationStatus    = "UPDATE_RESERVATION_STATUS"
	ActionReservationCancelled = "CANCEL_RESERVATION"
	ActionItemCreated          = "CREATE_ITEM"
	ActionItemDeleted          = "DELETE_ITEM"
)

// Entry describes one audit event before persistence.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Changes    map[string]any
}

// Record appends an audit log row. Call it with the transaction handle of
// the mutation it documents so both commit or roll back together.
func Record(db *gorm.DB, e Entry) error {
	if e.Action == "" || e.EntityType == "" || e.EntityID == "" {
		return errors.New("audit entry requires action, entity type, and entity id")
	}

	payload := "{}"
	if len(e.Changes) > 0 {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("failed to encode audit changes: %w", err)
		}
		payload = string(raw)
	}

	row := models.AuditLog{
		ID:         uuid.NewString(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Changes:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	return db.Create(&row).Error
}

// WithinWindow reports whether the action was already applied to the entity
// inside the given window, according to the marker index.
func WithinWindow(db *gorm.DB, entityType, entityID, action string, window time.Duration, now time.Time) (bool, error) {
	var marker models.ActionMarker
	err := db.
		Where("entity_type = ? AND entity_id = ? AND action = ?", entityType, entityID, action).
		First(&marker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return now.Sub(marker.LastAppliedAt) < window, nil
}

// Touch upserts the marker for (entity, action), stamping it with now.
// Call it in the same transaction as the guarded side effect.
func Touch(db *gorm.DB, entityType, entityID, action string, now time.Time) error {
	marker := models.ActionMarker{
		EntityType:    entityType,
		EntityID:      entityID,
		Action:        action,
		LastAppliedAt: now,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}, {Name: "action"}},
		DoUpdates: clause.Assignments(map[string]any{"last_applied_at": now}),
	}).Create(&marker).Error
}
