package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single load started by Loader.Get.
const DefaultLoadTimeout = 10 * time.Second

// Store is a key-value store with per-entry TTL. A non-positive TTL means
// the entry does not expire.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, error)

	// Add writes value only if key holds neither a value nor a tombstone.
	// It reports whether the value was written.
	Add(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)

	// Invalidate replaces key with a tombstone for ttl. Get treats a
	// tombstone as a miss and Add does not overwrite it.
	Invalidate(ctx context.Context, key string, ttl time.Duration) error
}

// Loader serves lookups from a Store and fills it on a miss. Concurrent
// misses for the same key share one load.
type Loader[V any] struct {
	store   Store[V]
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	timeout time.Duration
	logger  *slog.Logger
}

// WithLoadTimeout bounds each load. Values <= 0 are ignored.
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(o *loaderOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger for store failures. nil is ignored.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(o *loaderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewLoader caches loaded values in store for ttl.
func NewLoader[V any](store Store[V], ttl time.Duration, opts ...LoaderOption) *Loader[V] {
	o := loaderOptions{timeout: DefaultLoadTimeout, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[V]{store: store, ttl: ttl, timeout: o.timeout, logger: o.logger}
}

// Get returns the cached value for key or calls load. A failed load is
// returned as is and leaves the store untouched. Store failures are logged
// and fall through to load.
//
// The shared load is detached from ctx, so one cancelled caller does not
// fail the others waiting on the same key; ctx still bounds how long this
// caller waits.
func (l *Loader[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	var zero V

	v, err := l.store.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		l.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	ch := l.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		val, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if _, err := l.store.Add(lctx, key, val, l.ttl); err != nil {
			l.logger.WarnContext(lctx, "cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return val, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Forget invalidates key so the next Get loads it again. The tombstone
// outlives any load already running, which therefore cannot write a stale
// value back.
func (l *Loader[V]) Forget(ctx context.Context, key string) error {
	l.group.Forget(key)
	return l.store.Invalidate(ctx, key, 2*l.timeout)
}
