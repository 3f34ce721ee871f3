package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only if it still holds our token, so a
// holder whose lease expired cannot release someone else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is a best-effort exclusive lock across processes: SET NX PX with a
// random token, released by compare-and-delete. The TTL bounds how long a
// crashed holder blocks others.
type Lease struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewLease returns a lease on key with the given TTL.
func NewLease(client redis.UniversalClient, key string, ttl time.Duration) *Lease {
	return &Lease{client: client, key: key, ttl: ttl}
}

// TryLock attempts to take the lease without waiting. When acquired, the
// returned release func must be called to give it up early.
func (l *Lease) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%w: acquire %s: %w", ErrLeaseFailed, l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: release %s: %w", ErrLeaseFailed, l.key, err)
		}
		return nil
	}
	return release, true, nil
}
