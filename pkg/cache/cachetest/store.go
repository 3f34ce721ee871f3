// Package cachetest provides an in-memory cache.Store for tests. It mirrors
// the Redis store: Add never overwrites a live value or tombstone.
package cachetest

import (
	"context"
	"sync"
	"time"

	"github.com/Komal-TGT/Storage-service/pkg/cache"
	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

type entry[V any] struct {
	value     V
	gone      bool
	expiresAt time.Time // zero means never
}

// Store is a cache.Store kept in a map. Entries expire on its clock.
type Store[V any] struct {
	clock clock.Clock

	mu       sync.Mutex
	items    map[string]entry[V]
	writeErr error
	adds     int
}

// New creates a Store. A nil clock uses wall time.
func New[V any](clk clock.Clock) *Store[V] {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store[V]{clock: clk, items: make(map[string]entry[V])}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.live(key)
	if !ok || e.gone {
		return zero, cache.ErrNotFound
	}
	return e.value, nil
}

func (s *Store[V]) Add(_ context.Context, key string, value V, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return false, s.writeErr
	}
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.items[key] = entry[V]{value: value, expiresAt: s.deadline(ttl)}
	s.adds++
	return true, nil
}

func (s *Store[V]) Invalidate(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		delete(s.items, key)
		return nil
	}
	s.items[key] = entry[V]{gone: true, expiresAt: s.deadline(ttl)}
	return nil
}

// FailWrites makes every later Add return err. nil restores writes.
func (s *Store[V]) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Adds returns how many values were written.
func (s *Store[V]) Adds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adds
}

// live returns the unexpired entry for key, dropping an expired one.
func (s *Store[V]) live(key string) (entry[V], bool) {
	e, ok := s.items[key]
	if !ok {
		return e, false
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		delete(s.items, key)
		return e, false
	}
	return e, true
}

func (s *Store[V]) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(ttl)
}

var _ cache.Store[any] = (*Store[any])(nil)
