package backup

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/Komal-TGT/Storage-service/pkg/access"
	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// DefaultCopyGrantTTL is the lifetime of the read grant used as copy source.
const DefaultCopyGrantTTL = 600 * time.Second

// PendingSource discovers objects that still need a backup copy.
// storage.TagScan is the default implementation.
type PendingSource interface {
	ListPending(ctx context.Context) iter.Seq2[string, error]
}

// Issuer issues the read grant the backup container copies from.
type Issuer interface {
	Issue(ctx context.Context, objectPath string, opts ...access.IssueOption) (*access.Grant, error)
}

// Copier writes a copy of the object behind a URL.
type Copier interface {
	CopyFromURL(ctx context.Context, sourceURL, destPath string) error
}

// Tagger marks source objects as backed up.
type Tagger interface {
	SetTag(ctx context.Context, objectPath, key, value string) error
}

// Locker serialises cycles across processes.
type Locker interface {
	TryLock(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// Report summarises one cycle.
type Report struct {
	Discovered int           `json:"discovered"`
	Copied     int           `json:"copied"`
	Failed     int           `json:"failed"`
	Skipped    bool          `json:"skipped"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}

// Reconciler copies pending receipts from the primary into the backup
// container. Cycles are non-reentrant: an overlapping RunOnce is skipped.
type Reconciler struct {
	source  PendingSource
	issuer  Issuer
	dest    Copier
	primary Tagger
	locker  Locker
	clock   clock.Clock
	logger  *slog.Logger
	ttl     time.Duration

	mu sync.Mutex
}

// NewReconciler wires a reconciler. dest is the backup container and
// primary the container whose tags are updated.
func NewReconciler(source PendingSource, issuer Issuer, dest Copier, primary Tagger, opts ...Option) *Reconciler {
	r := &Reconciler{
		source:  source,
		issuer:  issuer,
		dest:    dest,
		primary: primary,
		clock:   clock.Real(),
		logger:  slog.New(slog.DiscardHandler),
		ttl:     DefaultCopyGrantTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce runs one backup cycle. Per-object copy and tag failures are
// logged and counted; the object stays backup=needed and is retried next
// cycle. The returned error reports discovery failures only.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	report := Report{StartedAt: r.clock.Now()}

	if !r.mu.TryLock() {
		r.logger.InfoContext(ctx, "backup cycle skipped", slog.String("reason", "cycle in progress"))
		report.Skipped = true
		return report, nil
	}
	defer r.mu.Unlock()

	if r.locker != nil {
		release, acquired, err := r.locker.TryLock(ctx)
		if err != nil {
			return report, fmt.Errorf("%w: %w", ErrLockFailed, err)
		}
		if !acquired {
			r.logger.InfoContext(ctx, "backup cycle skipped", slog.String("reason", "lease held elsewhere"))
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				r.logger.WarnContext(ctx, "failed to release backup lease", slog.Any("error", err))
			}
		}()
	}

	r.logger.InfoContext(ctx, "backup cycle started")

	var discoveryErrs []error
	for objectPath, err := range r.source.ListPending(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				discoveryErrs = append(discoveryErrs, ctx.Err())
				break
			}
			r.logger.ErrorContext(ctx, "backup discovery error", slog.String("path", objectPath), slog.Any("error", err))
			discoveryErrs = append(discoveryErrs, err)
			if objectPath == "" {
				break
			}
			report.Failed++
			continue
		}

		report.Discovered++
		if r.backupOne(ctx, objectPath) {
			report.Copied++
		} else {
			report.Failed++
		}

		if ctx.Err() != nil {
			discoveryErrs = append(discoveryErrs, ctx.Err())
			break
		}
	}

	report.Duration = r.clock.Now().Sub(report.StartedAt)
	r.logger.InfoContext(ctx, "backup cycle finished",
		slog.Int("discovered", report.Discovered),
		slog.Int("copied", report.Copied),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	)

	if len(discoveryErrs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrDiscoveryFailed, errors.Join(discoveryErrs...))
	}
	return report, nil
}

// backupOne copies a single object and marks it done. Reports success of the copy.
func (r *Reconciler) backupOne(ctx context.Context, objectPath string) bool {
	log := r.logger.With(slog.String("path", objectPath))

	grant, err := r.issuer.Issue(ctx, objectPath, access.WithPermissions("r"), access.WithExpiry(r.ttl))
	if err != nil {
		log.ErrorContext(ctx, "backup grant failed", slog.Any("error", err))
		return false
	}

	if err := r.dest.CopyFromURL(ctx, grant.URL, objectPath); err != nil {
		log.ErrorContext(ctx, "backup copy failed", slog.Any("error", err))
		return false
	}

	if err := r.primary.SetTag(ctx, objectPath, storage.TagBackup, storage.BackupDone); err != nil {
		// The copy exists; the next cycle copies again, which is idempotent.
		log.WarnContext(ctx, "backup tag update failed", slog.Any("error", err))
		return true
	}

	log.DebugContext(ctx, "backup copied")
	return true
}
