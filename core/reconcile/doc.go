// Package reconcile keeps an item's stored availability status consistent
// with its reservation set.
//
// Reservations are the source of truth; the stored item status is a
// materialized view of them. The projection is a pure function:
//
//  1. Any ACTIVE reservation        -> BORROWED
//  2. Any APPROVED or PENDING hold  -> RESERVED
//  3. Item explicitly MAINTENANCE
//     or RETIRED                    -> preserved (explicit states win)
//  4. Otherwise                     -> AVAILABLE
//
// # Architecture
//
// The engine exposes two operations:
//
//   - Recommend: read-only. Computes the projected status and reports drift
//     between it and the stored status, without writing anything.
//   - Reconcile: acquires a per-item lease, re-reads the item and its
//     reservations inside one transaction, applies the projected status, and
//     appends an audit log row. The item update and the audit row commit or
//     roll back together.
//
// # Locking
//
// Two concurrent reconciliations of the same item could both read a stale
// reservation set and write conflicting statuses. The Locker interface
// serializes them: a Redis SET NX PX lease when Redis is configured, a
// per-key in-process mutex otherwise. On MySQL the item row is additionally
// read FOR UPDATE inside the transaction.
package reconcile
