// Package redis wraps [github.com/redis/go-redis/v9] for the gateway:
// connection setup, a health check and the [Lease] that keeps backup cycles
// from overlapping across replicas.
//
// # Usage
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"),
//		redis.WithRetry(5, time.Second),
//	)
//	if err != nil {
//		return err
//	}
//
//	lease := redis.NewLease(client, "receipts:backup", 30*time.Minute)
//	release, ok, err := lease.TryLock(ctx)
//
// # Error Handling
//
// Every returned error wraps one of the sentinels below together with the
// driver error, so both match with [errors.Is]: [ErrEmptyConnectionURL],
// [ErrFailedToParseURL], [ErrConnectionFailed], [ErrHealthcheckFailed] and
// [ErrLeaseFailed].
package redis
