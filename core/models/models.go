package models

import (
	"time"
)

// ItemStatus is the lifecycle state of an inventory item.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "AVAILABLE"
	ItemReserved    ItemStatus = "RESERVED"
	ItemBorrowed    ItemStatus = "BORROWED"
	ItemMaintenance ItemStatus = "MAINTENANCE"
	ItemRetired     ItemStatus = "RETIRED"
)

// ValidItemStatus reports whether s is one of the known item statuses.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemAvailable, ItemReserved, ItemBorrowed, ItemMaintenance, ItemRetired:
		return true
	}
	return false
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationApproved  ReservationStatus = "APPROVED"
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// ValidReservationStatus reports whether s is one of the known reservation statuses.
func ValidReservationStatus(s ReservationStatus) bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationActive,
		ReservationCompleted, ReservationRejected, ReservationCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the reservation can no longer change state.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationCompleted, ReservationRejected, ReservationCancelled:
		return true
	}
	return false
}

// NonTerminalReservationStatuses lists the statuses of reservations that still
// hold a claim on an item.
var NonTerminalReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationApproved,
	ReservationActive,
}

// Role is the access tier of a user.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleManager    Role = "MANAGER"
	RoleStaff      Role = "STAFF"
	RoleBorrower   Role = "BORROWER"
)

// StaffTier lists the roles allowed to mutate inventory and run operational
// endpoints.
var StaffTier = []Role{RoleSuperAdmin, RoleManager, RoleStaff}

// Item is a physical asset tracked by the system.
type Item struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	Category  string     `json:"category" gorm:"type:varchar(100);index"`
	Status    ItemStatus `json:"status" gorm:"type:varchar(20);index;default:AVAILABLE"`
	Value     float64    `json:"value"`
	Metadata  string     `json:"metadata,omitempty" gorm:"type:text"`
	PhotoKey  string     `json:"photoKey,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Reservation is a user's claim on an item over a date range.
type Reservation struct {
	ID        string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ItemID    string            `json:"itemId" gorm:"type:varchar(36);index;not null"`
	UserID    string            `json:"userId" gorm:"type:varchar(36);index;not null"`
	Status    ReservationStatus `json:"status" gorm:"type:varchar(20);index"`
	StartDate time.Time         `json:"startDate"`
	EndDate   time.Time         `json:"endDate" gorm:"index"`
	Purpose   string            `json:"purpose,omitempty" gorm:"type:varchar(512)"`
	// RejectionReason explains a REJECTED or CANCELLED outcome.
	RejectionReason string `json:"rejectionReason,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Return records the hand-back of a borrowed item.
type Return struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReservationID string    `json:"reservationId" gorm:"type:varchar(36);uniqueIndex;not null"`
	Condition     string    `json:"condition" gorm:"type:varchar(50)"`
	Notes         string    `json:"notes,omitempty" gorm:"type:text"`
	ReturnedAt    time.Time `json:"returnedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// User is an account holder. TrustScore decays when items come back late.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string    `json:"name" gorm:"type:varchar(255)"`
	Email      string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Role       Role      `json:"role" gorm:"type:varchar(20);default:BORROWER"`
	SessionKey string    `json:"-" gorm:"type:varchar(64);index"`
	TrustScore float64   `json:"trustScore" gorm:"default:100"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AuditLog is an append-only record of a state change. Changes holds a JSON
// object describing the delta.
type AuditLog struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Action     string    `json:"action" gorm:"type:varchar(64);index"`
	EntityType string    `json:"entityType" gorm:"type:varchar(32);index:idx_audit_entity"`
	EntityID   string    `json:"entityId" gorm:"type:varchar(36);index:idx_audit_entity"`
	UserID     string    `json:"userId" gorm:"type:varchar(36)"`
	Changes    string    `json:"changes" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ActionMarker tracks when an action was last applied to an entity. The
// unique index makes the idempotency upsert race-safe.
type ActionMarker struct {
	ID            uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	EntityType    string    `json:"entityType" gorm:"type:varchar(32);uniqueIndex:idx_marker_entity_action"`
	EntityID      string    `json:"entityId" gorm:"type:varchar(36);uniqueIndex:idx_marker_entity_action"`
	Action        string    `json:"action" gorm:"type:varchar(64);uniqueIndex:idx_marker_entity_action"`
	LastAppliedAt time.Time `json:"lastAppliedAt"`
}

// All returns the full model set for migration.
func All() []any {
	return []any{
		&Item{},
		&Reservation{},
		&Return{},
		&User{},
		&AuditLog{},
		&ActionMarker{},
	}
}
