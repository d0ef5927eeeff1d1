package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRecordAppendsRow(t *testing.T) {
	db := setupDB(t)

	err := Record(db, Entry{
		Action:     ActionStatusReconciled,
		EntityType: "item",
		EntityID:   "item-1",
		UserID:     "user-1",
		Changes:    map[string]any{"from": "AVAILABLE", "to": "BORROWED"},
	})
	require.NoError(t, err)

	var rows []models.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, ActionStatusReconciled, rows[0].Action)

	var changes map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[0].Changes), &changes))
	assert.Equal(t, "BORROWED", changes["to"])
}

func TestRecordRejectsIncompleteEntry(t *testing.T) {
	db := setupDB(t)
	assert.Error(t, Record(db, Entry{Action: "X"}))
}

func TestMarkerWindow(t *testing.T) {
	db := setupDB(t)
	now := time.Now().UTC()
	window := 24 * time.Hour

	due, err := WithinWindow(db, "reservation", "r-1", ActionCriticalPenalty, window, now)
	require.NoError(t, err)
	assert.False(t, due, "no marker yet")

	require.NoError(t, Touch(db, "reservation", "r-1", ActionCriticalPenalty, now))

	due, err = WithinWindow(db, "reservation", "r-1", ActionCriticalPenalty, window, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, due, "marker inside window")

	due, err = WithinWindow(db, "reservation", "r-1", ActionCriticalPenalty, window, now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.False(t, due, "marker expired")

	// Independent windows per action kind.
	due, err = WithinWindow(db, "reservation", "r-1", ActionOverdueNotification, window, now)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestTouchUpsertsSingleRow(t *testing.T) {
	db := setupDB(t)
	now := time.Now().UTC()

	require.NoError(t, Touch(db, "reservation", "r-1", ActionOverdueNotification, now))
	require.NoError(t, Touch(db, "reservation", "r-1", ActionOverdueNotification, now.Add(time.Hour)))

	var count int64
	require.NoError(t, db.Model(&models.ActionMarker{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var marker models.ActionMarker
	require.NoError(t, db.First(&marker).Error)
	assert.WithinDuration(t, now.Add(time.Hour), marker.LastAppliedAt, time.Second)
}
