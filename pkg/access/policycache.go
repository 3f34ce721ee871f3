package access

import (
	"context"
	"time"

	"github.com/Komal-TGT/Storage-service/pkg/cache"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// PolicyCache serves policy lookups from a cache so every shared-link
// download does not cost a storage read. Revocations must go through Forget
// to take effect at once; a policy deleted behind the cache's back keeps
// verifying until its entry expires. Missing policies are never cached.
//
// The store must be shared by every process that verifies or revokes, so
// only a Redis store is used outside tests.
type PolicyCache struct {
	next   PolicyStore
	loader *cache.Loader[storage.AccessPolicy]
}

// NewPolicyCache caches lookups from next in store for ttl.
func NewPolicyCache(next PolicyStore, store cache.Store[storage.AccessPolicy], ttl time.Duration, opts ...cache.LoaderOption) *PolicyCache {
	return &PolicyCache{next: next, loader: cache.NewLoader(store, ttl, opts...)}
}

// GetPolicy implements PolicyStore.
func (p *PolicyCache) GetPolicy(ctx context.Context, id string) (*storage.AccessPolicy, error) {
	policy, err := p.loader.Get(ctx, id, func(ctx context.Context) (storage.AccessPolicy, error) {
		got, err := p.next.GetPolicy(ctx, id)
		if err != nil {
			return storage.AccessPolicy{}, err
		}
		return *got, nil
	})
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// Forget drops the cached entry for id.
func (p *PolicyCache) Forget(ctx context.Context, id string) error {
	return p.loader.Forget(ctx, id)
}
