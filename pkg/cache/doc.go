// Package cache holds short-lived lookups shared by the gateway replicas.
//
// [Redis] stores JSON values under a key prefix so every replica sees the
// same entries and the same invalidations. [Loader] puts a [Store] in front
// of a slow lookup and collapses concurrent misses:
//
//	policies := cache.NewLoader[storage.AccessPolicy](cache.NewRedis[storage.AccessPolicy](client, "receiptd:policy"), 30*time.Second)
//	p, err := policies.Get(ctx, id, func(ctx context.Context) (storage.AccessPolicy, error) {
//	    return container.GetPolicy(ctx, id)
//	})
//
// Lookup errors are never cached. [Loader.Forget] leaves a short tombstone
// rather than deleting the key, so a load racing the invalidation cannot
// restore the old value.
package cache
