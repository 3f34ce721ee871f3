package job

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Manager runs periodic tasks as River jobs. River elects one leader per
// database, so a task fires once per tick however many replicas run.
type Manager struct {
	pool    *pgxpool.Pool
	client  *river.Client[pgx.Tx]
	tasks   map[string]func(context.Context) error
	logger  *slog.Logger
	running atomic.Bool
}

// NewManager builds the River client. Run Migrate first.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	tasks := make(map[string]func(context.Context) error, len(s.tasks))
	periodic := make([]*river.PeriodicJob, 0, len(s.tasks))
	for _, t := range s.tasks {
		if _, dup := tasks[t.name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, t.name)
		}
		sched, err := parseSchedule(t.schedule)
		if err != nil {
			return nil, err
		}
		tasks[t.name] = t.run

		args := &runArgs{Task: t.name}
		periodic = append(periodic, river.NewPeriodicJob(sched,
			func() (river.JobArgs, *river.InsertOpts) { return args, nil },
			&river.PeriodicJobOpts{RunOnStart: s.runOnStart},
		))
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &runWorker{tasks: tasks, logger: s.logger, timeout: s.timeout})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: s.maxWorkers}},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: new client: %w", err)
	}

	return &Manager{pool: pool, client: client, tasks: tasks, logger: s.logger}, nil
}

// Start begins fetching and running jobs.
func (m *Manager) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		m.running.Store(false)
		return fmt.Errorf("job: start: %w", err)
	}
	m.logger.InfoContext(ctx, "job manager started", slog.Any("tasks", m.Tasks()))
	return nil
}

// Stop waits for running jobs, bounded by ctx.
func (m *Manager) Stop(ctx context.Context) error {
	if !m.running.CompareAndSwap(true, false) {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop: %w", err)
	}
	m.logger.InfoContext(ctx, "job manager stopped")
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (m *Manager) Running() bool { return m.running.Load() }

// Trigger enqueues an immediate run of a registered task. Requests within
// the same minute collapse into one job.
func (m *Manager) Trigger(ctx context.Context, name string) error {
	if _, ok := m.tasks[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	_, err := m.client.Insert(ctx, &runArgs{Task: name}, &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByPeriod: time.Minute},
	})
	if err != nil {
		return fmt.Errorf("job: trigger %s: %w", name, err)
	}
	return nil
}

// Tasks returns the registered task names, sorted.
func (m *Manager) Tasks() []string {
	return slices.Sorted(maps.Keys(m.tasks))
}
