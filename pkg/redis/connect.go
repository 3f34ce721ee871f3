package redis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option tunes the client built by Open.
type Option func(*settings)

type settings struct {
	poolSize    int
	attempts    int
	backoff     time.Duration
	ioTimeout   time.Duration
	dialTimeout time.Duration
}

// The gateway holds at most one lease and a handful of cache reads at a
// time, so the pool stays small.
var defaults = settings{
	poolSize:    4,
	attempts:    3,
	backoff:     2 * time.Second,
	ioTimeout:   3 * time.Second,
	dialTimeout: 5 * time.Second,
}

// WithPoolSize caps pooled connections.
func WithPoolSize(n int) Option {
	return func(s *settings) { s.poolSize = n }
}

// WithRetry makes Open try attempts times, waiting n*backoff after the
// n-th failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *settings) {
		s.attempts = attempts
		s.backoff = backoff
	}
}

// WithTimeouts sets the read/write and dial timeouts.
func WithTimeouts(io, dial time.Duration) Option {
	return func(s *settings) {
		s.ioTimeout = io
		s.dialTimeout = dial
	}
}

// Open connects to the redis:// or rediss:// URL rawURL and returns once the
// server answers PING.
func Open(ctx context.Context, rawURL string, opts ...Option) (redis.UniversalClient, error) {
	if rawURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
		return nil, fmt.Errorf("%w: scheme must be redis or rediss", ErrFailedToParseURL)
	}

	s := defaults
	for _, opt := range opts {
		opt(&s)
	}

	ro, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToParseURL, err)
	}
	ro.PoolSize = s.poolSize
	ro.ReadTimeout, ro.WriteTimeout = s.ioTimeout, s.ioTimeout
	ro.DialTimeout = s.dialTimeout

	var lastErr error
	for attempt := 1; attempt <= max(s.attempts, 1); attempt++ {
		client := redis.NewClient(ro)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, lastErr)
}
