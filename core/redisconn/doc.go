// Package redisconn provides the optional Redis client used for distributed
// per-item leases in the reconcile engine. When no address is configured the
// application runs without Redis and uses in-process leases instead.
package redisconn
