// Package audit writes the append-only audit trail and maintains the
// idempotency marker index.
//
// The audit log is the record; the ActionMarker table is the idempotency
// check. Keeping them separate avoids string-prefix scans over the log when
// deciding whether an action was recently applied: WithinWindow reads one
// indexed row, Touch upserts it inside the same transaction as the side
// effect it guards.
package audit
