// Package config aggregates the partial configurations of every core concern
// into a single struct loaded from environment variables and an optional
// .env file.
//
// Defaults are declared as struct tags on the partial config structs and
// bound into Viper via reflection, so SERVER_PORT maps to server.port,
// DATABASE_HOST to database.host, SWEEP_CRON to sweep.cron, and so on.
package config
