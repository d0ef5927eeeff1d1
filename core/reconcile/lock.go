package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another reconciliation currently holds the
// lease for the same item.
var ErrLockHeld = errors.New("item is locked by a concurrent reconciliation")

// Locker serializes reconciliations per item. Acquire is a try-lock: it
// either grants the lease and returns a release func, or fails with
// ErrLockHeld.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// memLocker is the in-process fallback used when Redis is not configured.
type memLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemLocker creates an in-process per-key try-lock.
func NewMemLocker() Locker {
	return &memLocker{held: make(map[string]struct{})}
}

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrLockHeld
	}
	l.held[key] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

// redisLocker implements the lease as SET key token NX PX ttl, released by a
// compare-and-delete script so an expired lease is never released by a
// stale holder.
type redisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a distributed per-key lease backed by Redis.
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client, prefix: "brocy:reconcile:lock:"}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	full := l.prefix + key

	ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		// Best effort: the TTL reclaims the lease if the release is lost.
		_ = releaseScript.Run(context.Background(), l.client, []string{full}, token).Err()
	}, nil
}
