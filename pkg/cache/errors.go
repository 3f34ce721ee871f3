package cache

import "errors"

var (
	// ErrNotFound is returned when a key is absent or expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrMarshal is returned when a value cannot be encoded for Redis.
	ErrMarshal = errors.New("cache: failed to marshal value")

	// ErrUnmarshal is returned when a stored value cannot be decoded.
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")
)
