// Package database provides the GORM connection layer.
//
// It supports two drivers selected through configuration:
//
//   - mysql: the production driver, with pool tuning and an initial ping
//   - sqlite: used by tests (":memory:") and throwaway local runs
//
// Migrate applies AutoMigrate for every model in core/models; the schema is
// owned by the models, not by hand-written DDL.
package database
