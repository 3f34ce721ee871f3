package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Komal-TGT/Storage-service/internal/config"
	"github.com/Komal-TGT/Storage-service/middlewares"
	"github.com/Komal-TGT/Storage-service/pkg/access"
	"github.com/Komal-TGT/Storage-service/pkg/backup"
	"github.com/Komal-TGT/Storage-service/pkg/cache"
	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/db"
	"github.com/Komal-TGT/Storage-service/pkg/job"
	"github.com/Komal-TGT/Storage-service/pkg/logger"
	"github.com/Komal-TGT/Storage-service/pkg/redis"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

const (
	// backupLeaseKey is the redis key that serialises backup cycles across replicas.
	backupLeaseKey = "receiptd:backup:lease"

	policyCachePrefix = "receiptd:policy"
)

const flushTimeout = 2 * time.Second

// RuntimeOption adjusts how the runtime is built. Tests use it to swap the
// S3 client and the clock.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	account []storage.AccountOption
	output  io.Writer
	clock   clock.Clock
}

// WithAccountOptions passes extra options to storage.New.
func WithAccountOptions(opts ...storage.AccountOption) RuntimeOption {
	return func(o *runtimeOptions) {
		o.account = append(o.account, opts...)
	}
}

// WithLogOutput redirects the JSON log stream. Defaults to stderr.
func WithLogOutput(w io.Writer) RuntimeOption {
	return func(o *runtimeOptions) {
		o.output = w
	}
}

// WithClock sets the clock used for grants and backup reports.
func WithClock(c clock.Clock) RuntimeOption {
	return func(o *runtimeOptions) {
		o.clock = c
	}
}

// Runtime holds the wired service components of one process.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clock   clock.Clock
	Account *storage.Account
	Issuer  *access.Issuer

	// Policies is set by ConnectRedis when POLICY_CACHE_TTL is positive.
	Policies *access.PolicyCache

	// Set by Connect when configured.
	Redis goredis.UniversalClient
	Pool  *pgxpool.Pool

	flush   func(time.Duration)
	closers []func(context.Context) error
}

// Build wires the logger, the storage account and the grant issuer. It
// performs no network I/O.
func Build(cfg *config.Config, opts ...RuntimeOption) (*Runtime, error) {
	o := runtimeOptions{output: os.Stderr, clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}

	log, flush := logger.New(o.output, cfg.Log, middlewares.RequestIDExtractor(), logger.ComponentExtractor())

	scfg, err := cfg.StorageConfig()
	if err != nil {
		return nil, err
	}
	acct, err := storage.New(scfg, append([]storage.AccountOption{storage.WithClock(o.clock)}, o.account...)...)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:  cfg,
		Logger:  log,
		Clock:   o.clock,
		Account: acct,
		flush:   flush,
	}
	if err := rt.wireIssuer(nil); err != nil {
		return nil, err
	}
	if cfg.Access.PolicyCacheTTL > 0 && cfg.RedisURL == "" {
		log.Warn("policy cache needs REDIS_URL, reading policies from storage")
	}
	return rt, nil
}

// wireIssuer builds the grant issuer. Policy lookups are cached in store
// when it is non-nil and POLICY_CACHE_TTL is positive.
func (rt *Runtime) wireIssuer(store cache.Store[storage.AccessPolicy]) error {
	cfg := rt.Config
	primary := rt.Account.Primary()

	var policies access.PolicyStore = primary
	rt.Policies = nil
	if ttl := cfg.Access.PolicyCacheTTL; store != nil && ttl > 0 {
		rt.Policies = access.NewPolicyCache(primary, store, ttl, cache.WithLogger(rt.Logger))
		policies = rt.Policies
	}

	issuer, err := access.New(rt.Account.Presigner(), policies, access.Config{
		Container:     primary.Name(),
		PolicyID:      cfg.Access.PermanentPolicyID,
		PublicURL:     cfg.GatewayURL(),
		DefaultExpiry: cfg.Access.DefaultExpiry,
		Secret:        rt.Account.SigningSecret(),
	}, access.WithClock(rt.Clock), access.WithLogger(rt.Logger))
	if err != nil {
		return err
	}
	rt.Issuer = issuer
	return nil
}

// Connect opens Redis and Postgres when their URLs are configured.
func (rt *Runtime) Connect(ctx context.Context) error {
	if err := rt.ConnectRedis(ctx); err != nil {
		return err
	}

	if rt.Config.DB.Enabled() {
		pool, err := db.Connect(ctx, rt.Config.DB)
		if err != nil {
			return err
		}
		rt.Pool = pool
		rt.closers = append(rt.closers, db.Shutdown(pool))
		rt.Logger.InfoContext(ctx, "postgres connected")
	}
	return nil
}

// ConnectRedis opens Redis when REDIS_URL is set and puts the policy cache
// on it. Every replica and the revoke command share that one cache, so a
// revocation reaches all of them at once.
func (rt *Runtime) ConnectRedis(ctx context.Context) error {
	url := rt.Config.RedisURL
	if url == "" || rt.Redis != nil {
		return nil
	}

	client, err := redis.Open(ctx, url)
	if err != nil {
		return err
	}
	rt.Redis = client
	rt.closers = append(rt.closers, redis.Shutdown(client))
	rt.Logger.InfoContext(ctx, "redis connected")

	return rt.wireIssuer(cache.NewRedis[storage.AccessPolicy](client, policyCachePrefix))
}

// Bootstrap ensures both containers exist, then the permanent read policy.
// A container failure aborts startup; a policy failure only disables
// permanent links until the next start.
func (rt *Runtime) Bootstrap(ctx context.Context) error {
	for _, c := range []*storage.Container{rt.Account.Primary(), rt.Account.Backup()} {
		created, err := c.Ensure(ctx)
		if err != nil {
			return err
		}
		if created {
			rt.Logger.InfoContext(ctx, "container created", slog.String("container", c.Name()))
		}
	}

	id := rt.Issuer.PolicyID()
	if id == "" {
		return nil
	}
	created, err := rt.Account.Primary().EnsurePolicy(ctx, id, rt.Clock.Now())
	if err != nil {
		rt.Logger.WarnContext(ctx, "permanent policy not ensured", slog.String("policy", id), slog.Any("error", err))
		return nil
	}
	if created {
		rt.Logger.InfoContext(ctx, "permanent policy created", slog.String("policy", id))
	}
	return nil
}

// Reconciler wires a backup reconciler from the primary into the backup
// container, leased through Redis when connected.
func (rt *Runtime) Reconciler() *backup.Reconciler {
	opts := []backup.Option{
		backup.WithClock(rt.Clock),
		backup.WithLogger(rt.Logger.With(slog.String("component", "backup"))),
		backup.WithCopyGrantTTL(rt.Config.Backup.CopyURLTTL),
	}
	if rt.Redis != nil {
		opts = append(opts, backup.WithLocker(redis.NewLease(rt.Redis, backupLeaseKey, rt.Config.Backup.LeaseTTL)))
	}

	primary := rt.Account.Primary()
	return backup.NewReconciler(storage.NewTagScan(primary), rt.Issuer, rt.Account.Backup(), primary, opts...)
}

// Worker is a background service started and stopped with the server.
// *backup.Scheduler and *job.Manager satisfy it.
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// BackupWorker selects where backup cycles run: a River periodic job when
// Postgres is connected, the in-process scheduler otherwise. It returns
// nil when backups are disabled.
func (rt *Runtime) BackupWorker(ctx context.Context, rec backup.Runner) (Worker, *job.Manager, error) {
	if rt.Config.Backup.Disabled {
		rt.Logger.InfoContext(ctx, "backup disabled")
		return nil, nil, nil
	}

	if rt.Pool == nil {
		sched, err := backup.NewScheduler(rec, rt.Config.Backup.Schedule, rt.Clock, rt.Logger)
		if err != nil {
			return nil, nil, err
		}
		return sched, nil, nil
	}

	if err := job.Migrate(ctx, rt.Pool); err != nil {
		return nil, nil, err
	}
	m, err := job.NewManager(rt.Pool,
		job.WithScheduledTask(backup.NewTask(rec, rt.Config.Backup.Schedule)),
		job.WithLogger(rt.Logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return m, m, nil
}

// Close releases connections in reverse order and flushes Sentry.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range slices.Backward(rt.closers) {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	rt.flush(flushTimeout)

	if len(errs) > 0 {
		return fmt.Errorf("close runtime: %w", errors.Join(errs...))
	}
	return nil
}
