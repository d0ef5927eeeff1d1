// Package storage provides the object storage client used for item
// attachments (photos, documents).
//
// The Client interface wraps the subset of Minio operations the application
// needs, so features depend on the interface and tests can use the testify
// mock in storage/mocks.
package storage
