package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Candra0x6/Inventy-sub003/core/audit"
	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrActiveReservations blocks destroying or retiring an item that still
	// has open claims.
	ErrActiveReservations = errors.New("item has active or pending reservations")
	// ErrItemNotFound mirrors the engine's not-found signal for item lookups.
	ErrItemNotFound = reconcile.ErrItemNotFound
	// ErrNameRequired rejects item creation without a name.
	ErrNameRequired = errors.New("name is required")
)

// Service handles item management and bulk status transitions.
type Service struct {
	db     *gorm.DB
	engine *reconcile.Engine
	logger *zap.Logger
}

// NewService creates a new inventory service.
func NewService(db *gorm.DB, engine *reconcile.Engine, logger *zap.Logger) *Service {
	return &Service{db: db, engine: engine, logger: logger}
}

// CreateItemInput carries the caller-supplied item fields.
type CreateItemInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Metadata string  `json:"metadata"`
}

// CreateItem registers a new item, starting AVAILABLE.
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput, actingUserID string) (*models.Item, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}

	item := models.Item{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Category: in.Category,
		Status:   models.ItemAvailable,
		Value:    in.Value,
		Metadata: in.Metadata,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Action:     audit.ActionItemCreated,
			EntityType: "item",
			EntityID:   item.ID,
			UserID:     actingUserID,
			Changes:    map[string]any{"name": item.Name, "category": item.Category},
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItem loads one item.
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns items, optionally filtered by status and category.
func (s *Service) ListItems(ctx context.Context, status models.ItemStatus, category string) ([]models.Item, error) {
	q := s.db.WithContext(ctx).Model(&models.Item{}).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var items []models.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteItem destroys an item. Refused while any non-terminal reservation
// references it.
func (s *Service) DeleteItem(ctx context.Context, id, actingUserID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		var open int64
		if err := tx.Model(&models.Reservation{}).
			Where("item_id = ? AND status IN ?", id, models.NonTerminalReservationStatuses).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: %d open", ErrActiveReservations, open)
		}

		if err := tx.Delete(&models.Item{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Action:     audit.ActionItemDeleted,
			EntityType: "item",
			EntityID:   id,
			UserID:     actingUserID,
			Changes:    map[string]any{"name": item.Name, "status": item.Status},
		})
	})
}

// Recommend proxies the engine's read-only drift report.
func (s *Service) Recommend(ctx context.Context, itemID string) (*reconcile.Recommendation, error) {
	return s.engine.Recommend(ctx, itemID)
}

// Reconcile proxies the engine's apply operation.
func (s *Service) Reconcile(ctx context.Context, itemID string, reservationStatus models.ReservationStatus, actingUserID, reason string) (*reconcile.Outcome, error) {
	return s.engine.Reconcile(ctx, itemID, reservationStatus, actingUserID, reason)
}
