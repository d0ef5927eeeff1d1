// Package metrics defines the Prometheus collectors for reconciliations,
// overdue sweeps, trust penalties, and bulk status updates. The /metrics
// endpoint is wired in cmd/start.go via promhttp.
package metrics
