package access

import (
	"log/slog"
	"time"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock sets the time source for signing windows.
func WithClock(c clock.Clock) Option {
	return func(i *Issuer) {
		i.clock = c
	}
}

// WithLogger sets the logger used for issue events.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) {
		i.logger = l
	}
}

// IssueOption configures a single Issue call.
type IssueOption func(*issueOptions)

// issueOptions holds configuration for Issue.
type issueOptions struct {
	permissions string
	expiry      time.Duration
	permanent   bool
}

// WithPermissions sets the permission letters (default "r").
func WithPermissions(p string) IssueOption {
	return func(o *issueOptions) {
		o.permissions = p
	}
}

// WithExpiry sets the lifetime of an expiring grant.
// Zero or negative values use the issuer default.
func WithExpiry(d time.Duration) IssueOption {
	return func(o *issueOptions) {
		o.expiry = d
	}
}

// Permanent requests a non-expiring grant bound to the stored access policy.
// Permanent grants are read-only: permissions other than "r" fail with
// ErrInvalidPermissions rather than being ignored. Without a configured
// policy the grant falls back to an expiring one with the requested
// permissions.
func Permanent() IssueOption {
	return func(o *issueOptions) {
		o.permanent = true
	}
}
