package config

import (
	"reflect"
	"strings"

	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/redisconn"
	"github.com/Candra0x6/Inventy-sub003/core/server"
	"github.com/Candra0x6/Inventy-sub003/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SweepConfig holds configuration for the overdue sweep scheduler.
type SweepConfig struct {
	// Cron is the schedule expression for the automatic sweep
	// (e.g. "0 0 * * *" for daily at midnight). Empty disables scheduling;
	// the sweep can still be triggered via the API or the CLI.
	Cron string `mapstructure:"cron" default:"0 0 * * *"`
	// IdempotencyHours is the window within which a notification or penalty
	// for the same reservation is not repeated.
	IdempotencyHours int `mapstructure:"idempotency_hours" default:"24"`
}

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Redis holds configuration for the optional Redis connection.
	Redis redisconn.Config `mapstructure:"redis"`
	// Sweep holds configuration for the overdue sweep scheduler.
	Sweep SweepConfig `mapstructure:"sweep"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
