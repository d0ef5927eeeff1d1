package database

import (
	"testing"

	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := Config{
		Driver: "sqlite",
		Name:   ":memory:",
	}
	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)

	require.NoError(t, Migrate(db))

	// Every domain table must exist after migration.
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	// ActionMarker carries the composite unique index used for idempotency.
	assert.True(t, db.Migrator().HasIndex(&models.ActionMarker{}, "idx_marker_entity_action"))
}

func TestConnectMySQLBadHostFails(t *testing.T) {
	cfg := Config{
		Driver:         "mysql",
		Host:           "127.0.0.1",
		Port:           1, // nothing listens here
		User:           "root",
		Name:           "brocy",
		TimeoutSeconds: 1,
	}
	_, err := Connect(cfg)
	assert.Error(t, err)
}
