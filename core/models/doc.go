// Package models holds the shared domain types persisted through gorm:
// items, reservations, returns, users, audit logs and idempotency markers.
// Status enums and their validity helpers live here so every feature agrees
// on the same vocabulary.
package models
