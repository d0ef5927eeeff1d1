// Package reporting builds aggregate views over the inventory: item and
// reservation counts by status, the overdue backlog, and the trust score
// distribution. Reports are cached with a TTL and built behind singleflight
// so concurrent dashboard refreshes cost one set of queries.
package reporting
