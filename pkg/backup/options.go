package backup

import (
	"log/slog"
	"time"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLocker adds a cross-process lock taken for each cycle.
func WithLocker(l Locker) Option {
	return func(r *Reconciler) {
		r.locker = l
	}
}

// WithClock sets the time source used for reports.
func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// WithLogger sets the reconciler logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// WithCopyGrantTTL overrides the copy source grant lifetime.
func WithCopyGrantTTL(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.ttl = d
		}
	}
}
