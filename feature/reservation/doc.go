// Package reservation implements the reservation lifecycle: request,
// approve, reject, pickup, return and cancel. Every transition commits the
// reservation row and its audit entry in one transaction, then drives the
// reconciliation engine so the item's status follows the new reservation
// picture.
package reservation
