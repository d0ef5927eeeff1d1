package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "X-Session-Key", cfg.Server.SessionHeader)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "brocy", cfg.Database.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0 0 * * *", cfg.Sweep.Cron)
	assert.Equal(t, 24, cfg.Sweep.IdempotencyHours)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SWEEP_CRON", "")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Empty(t, cfg.Sweep.Cron)
	assert.True(t, cfg.Redis.Enabled())
}
