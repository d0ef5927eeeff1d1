package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/audit"
	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrReservationNotFound means the reservation id does not exist.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrItemNotFound means the requested item does not exist.
	ErrItemNotFound = reconcile.ErrItemNotFound
	// ErrItemUnavailable means the item cannot take new reservations.
	ErrItemUnavailable = errors.New("item is retired and cannot be reserved")
	// ErrInvalidDates means the requested window is malformed.
	ErrInvalidDates = errors.New("endDate must be after startDate")
	// ErrInvalidTransition means the reservation is not in a state the
	// requested operation accepts.
	ErrInvalidTransition = errors.New("reservation state does not allow this transition")
	// ErrNotOwner means a borrower tried to act on someone else's reservation.
	ErrNotOwner = errors.New("reservation belongs to another user")
	// ErrReasonRequired means a rejection was submitted without a reason.
	ErrReasonRequired = errors.New("reason is required")
)

// Service implements the reservation lifecycle.
type Service struct {
	db     *gorm.DB
	engine *reconcile.Engine
	logger *zap.Logger
}

// NewService creates a reservation service.
func NewService(db *gorm.DB, engine *reconcile.Engine, logger *zap.Logger) *Service {
	return &Service{db: db, engine: engine, logger: logger}
}

// RequestInput carries the fields of a new reservation request.
type RequestInput struct {
	ItemID    string    `json:"itemId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Purpose   string    `json:"purpose"`
}

// Request files a new PENDING reservation for the calling user.
func (s *Service) Request(ctx context.Context, in RequestInput, userID string) (*models.Reservation, error) {
	if !in.EndDate.After(in.StartDate) {
		return nil, ErrInvalidDates
	}

	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, "id = ?", in.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if item.Status == models.ItemRetired {
		return nil, ErrItemUnavailable
	}

	res := models.Reservation{
		ID:        uuid.NewString(),
		ItemID:    in.ItemID,
		UserID:    userID,
		Status:    models.ReservationPending,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Purpose:   in.Purpose,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&res).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Action:     audit.ActionReservationStatus,
			EntityType: "reservation",
			EntityID:   res.ID,
			UserID:     userID,
			Changes:    map[string]any{"field": "status", "from": "", "to": models.ReservationPending},
		})
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.engine.Reconcile(ctx, res.ItemID, res.Status, userID, "reservation requested"); err != nil {
		s.logger.Warn("post-request reconciliation failed",
			zap.String("reservation_id", res.ID), zap.Error(err))
	}
	return &res, nil
}

// Get returns one reservation.
func (s *Service) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	if err := s.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	UserID string
	ItemID string
	Status models.ReservationStatus
}

// List returns reservations matching the filter, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&models.Reservation{}).Order("created_at DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.Reservation
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

// Approve moves a PENDING reservation to APPROVED.
func (s *Service) Approve(ctx context.Context, id, actingUserID string) (*models.Reservation, error) {
	return s.transition(ctx, id, actingUserID, models.ReservationApproved, models.ReservationPending)
}

// Reject moves a PENDING reservation to REJECTED. The reason is stored on the
// reservation so the borrower can see why.
func (s *Service) Reject(ctx context.Context, id, actingUserID, reason string) (*models.Reservation, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	res, err := s.applyTransition(ctx, id, actingUserID, models.ReservationRejected,
		func(tx *gorm.DB, res *models.Reservation) error {
			if res.Status != models.ReservationPending {
				return ErrInvalidTransition
			}
			if err := tx.Model(&models.Reservation{}).
				Where("id = ?", res.ID).
				Update("rejection_reason", reason).Error; err != nil {
				return fmt.Errorf("failed to store rejection reason: %w", err)
			}
			res.RejectionReason = reason
			return nil
		})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Pickup moves an APPROVED reservation to ACTIVE, marking the item as handed
// out.
func (s *Service) Pickup(ctx context.Context, id, actingUserID string) (*models.Reservation, error) {
	return s.transition(ctx, id, actingUserID, models.ReservationActive, models.ReservationApproved)
}

// ReturnInput describes the condition of a returned item.
type ReturnInput struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

// Return completes an ACTIVE reservation and records the hand-back.
func (s *Service) Return(ctx context.Context, id, actingUserID string, in ReturnInput) (*models.Reservation, error) {
	res, err := s.applyTransition(ctx, id, actingUserID, models.ReservationCompleted,
		func(tx *gorm.DB, res *models.Reservation) error {
			if res.Status != models.ReservationActive {
				return ErrInvalidTransition
			}
			ret := models.Return{
				ID:            uuid.NewString(),
				ReservationID: res.ID,
				Condition:     in.Condition,
				Notes:         in.Notes,
				ReturnedAt:    time.Now().UTC(),
			}
			if err := tx.Create(&ret).Error; err != nil {
				return fmt.Errorf("failed to record return: %w", err)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel moves a PENDING or APPROVED reservation to CANCELLED. Borrowers may
// only cancel their own.
func (s *Service) Cancel(ctx context.Context, id string, actor *models.User) (*models.Reservation, error) {
	return s.applyTransition(ctx, id, actor.ID, models.ReservationCancelled,
		func(tx *gorm.DB, res *models.Reservation) error {
			if actor.Role == models.RoleBorrower && res.UserID != actor.ID {
				return ErrNotOwner
			}
			if res.Status != models.ReservationPending && res.Status != models.ReservationApproved {
				return ErrInvalidTransition
			}
			return nil
		})
}

// transition applies a straight status move guarded by one accepted source
// state.
func (s *Service) transition(ctx context.Context, id, actingUserID string, to, from models.ReservationStatus) (*models.Reservation, error) {
	return s.applyTransition(ctx, id, actingUserID, to, func(tx *gorm.DB, res *models.Reservation) error {
		if res.Status != from {
			return ErrInvalidTransition
		}
		return nil
	})
}

// applyTransition loads the reservation, runs the guard, and commits the
// status change plus its audit entry. The guard may write extra rows on the
// same transaction. The item is reconciled after commit.
func (s *Service) applyTransition(ctx context.Context, id, actingUserID string, to models.ReservationStatus, guard func(tx *gorm.DB, res *models.Reservation) error) (*models.Reservation, error) {
	var res models.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if err := guard(tx, &res); err != nil {
			return err
		}
		from := res.Status

		if err := tx.Model(&models.Reservation{}).
			Where("id = ?", res.ID).
			Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("failed to update reservation status: %w", err)
		}
		res.Status = to

		action := audit.ActionReservationStatus
		if to == models.ReservationCancelled {
			action = audit.ActionReservationCancelled
		}
		return audit.Record(tx, audit.Entry{
			Action:     action,
			EntityType: "reservation",
			EntityID:   res.ID,
			UserID:     actingUserID,
			Changes:    map[string]any{"field": "status", "from": from, "to": to},
		})
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.engine.Reconcile(ctx, res.ItemID, res.Status, actingUserID, "reservation "+string(res.Status)); err != nil {
		s.logger.Warn("post-transition reconciliation failed",
			zap.String("reservation_id", res.ID), zap.Error(err))
	}
	return &res, nil
}
