// Package inventory manages items and bulk status transitions.
//
// Single-item reconciliation delegates to core/reconcile. The bulk validator
// partitions a batch into updated/skipped/failed under a strict pre-check
// (every requested id must exist) and applies the accepted set in one
// all-or-nothing transaction, cascade-cancelling open reservations when
// items move to RETIRED or MAINTENANCE.
//
// Note the error asymmetry: a conflict on a single-item operation is a hard
// failure, while the same conflict inside a bulk request lands the item in
// the failed partition of an otherwise successful response.
package inventory
