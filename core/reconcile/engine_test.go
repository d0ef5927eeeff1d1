package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewEngine(db, NewMemLocker(), zap.NewNop()), db
}

func seedItem(t *testing.T, db *gorm.DB, status models.ItemStatus) models.Item {
	t.Helper()
	item := models.Item{ID: uuid.NewString(), Name: "drill", Category: "tools", Status: status}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedReservation(t *testing.T, db *gorm.DB, itemID string, status models.ReservationStatus) models.Reservation {
	t.Helper()
	r := models.Reservation{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		UserID:    uuid.NewString(),
		Status:    status,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func TestRecommendReportsDrift(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemAvailable)
	seedReservation(t, db, item.ID, models.ReservationActive)

	rec, err := e.Recommend(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemAvailable, rec.CurrentStatus)
	assert.Equal(t, models.ItemBorrowed, rec.RecommendedStatus)
	assert.True(t, rec.DriftDetected)
}

func TestRecommendIsPure(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemAvailable)
	seedReservation(t, db, item.ID, models.ReservationPending)

	first, err := e.Recommend(context.Background(), item.ID)
	require.NoError(t, err)
	second, err := e.Recommend(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&audits).Error)
	assert.EqualValues(t, 0, audits, "recommendation must never write")

	var stored models.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, models.ItemAvailable, stored.Status)
}

func TestRecommendUnknownItem(t *testing.T) {
	e, _ := setupEngine(t)
	_, err := e.Recommend(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestReconcileAppliesDerivedStatus(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemAvailable)
	seedReservation(t, db, item.ID, models.ReservationActive)

	out, err := e.Reconcile(context.Background(), item.ID, models.ReservationActive, "staff-1", "pickup confirmed")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, models.ItemAvailable, out.PreviousStatus)
	assert.Equal(t, models.ItemBorrowed, out.NewStatus)

	var stored models.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, models.ItemBorrowed, stored.Status)

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "item", logs[0].EntityType)
	assert.Equal(t, item.ID, logs[0].EntityID)
	assert.Equal(t, "staff-1", logs[0].UserID)
}

func TestReconcileNoChangeWritesNothing(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemBorrowed)
	seedReservation(t, db, item.ID, models.ReservationActive)

	out, err := e.Reconcile(context.Background(), item.ID, models.ReservationActive, "staff-1", "")
	require.NoError(t, err)
	assert.False(t, out.Changed)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&audits).Error)
	assert.EqualValues(t, 0, audits)
}

func TestReconcilePreservesExplicitStates(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemMaintenance)
	// Only a completed reservation remains.
	seedReservation(t, db, item.ID, models.ReservationCompleted)

	out, err := e.Reconcile(context.Background(), item.ID, models.ReservationCompleted, "staff-1", "")
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, models.ItemMaintenance, out.NewStatus)
}

func TestReconcileValidatesInput(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemAvailable)

	_, err := e.Reconcile(context.Background(), item.ID, "", "staff-1", "")
	assert.ErrorIs(t, err, ErrMissingReservationStatus)

	_, err = e.Reconcile(context.Background(), item.ID, "SOMETHING", "staff-1", "")
	assert.ErrorIs(t, err, ErrMissingReservationStatus)
}

func TestReconcileUnknownItem(t *testing.T) {
	e, _ := setupEngine(t)
	_, err := e.Reconcile(context.Background(), "missing", models.ReservationActive, "staff-1", "")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestReconcileRefusesConcurrentLease(t *testing.T) {
	e, db := setupEngine(t)
	item := seedItem(t, db, models.ItemAvailable)

	release, err := e.locker.Acquire(context.Background(), item.ID, time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = e.Reconcile(context.Background(), item.ID, models.ReservationActive, "staff-1", "")
	assert.ErrorIs(t, err, ErrLockHeld)
}
