// Package overdue implements the daily sweep over active reservations whose
// end date has passed. The sweep escalates notifications on a fixed day
// schedule, applies trust score penalties once a reservation is critically
// late, and reports a severity breakdown. Action markers give every side
// effect a 24 hour idempotency window, so re-running the sweep within a day
// is safe.
package overdue
