package redisconn

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config holds configuration for the optional Redis connection.
type Config struct {
	// Address is the host:port of the Redis server. Empty disables Redis;
	// the reconcile engine then falls back to in-process item leases.
	Address string `mapstructure:"address" default:""`
	// Password is the Redis AUTH password.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis logical database number.
	DB int `mapstructure:"db" default:"0"`
	// PoolSize is the connection pool size.
	PoolSize int `mapstructure:"pool_size" default:"10"`
}

// Enabled reports whether a Redis address is configured.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// NewClient creates a Redis client from the configuration.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping verifies the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
