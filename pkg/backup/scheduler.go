package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

// DefaultSchedule runs a cycle at minute 10 of every hour.
const DefaultSchedule = "10 * * * *"

// Runner runs one backup cycle. *Reconciler satisfies it.
type Runner interface {
	RunOnce(ctx context.Context) (Report, error)
}

// ParseSchedule parses a five-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}

// Scheduler runs backup cycles in-process on a cron schedule. Cycles run
// on the scheduler goroutine, so a tick that arrives while a cycle is still
// running is skipped rather than queued.
type Scheduler struct {
	runner   Runner
	schedule cron.Schedule
	clock    clock.Clock
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler for runner. A nil clock uses wall time.
func NewScheduler(runner Runner, expr string, clk clock.Clock, logger *slog.Logger) (*Scheduler, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{runner: runner, schedule: sched, clock: clk, logger: logger}, nil
}

// Next returns the first tick strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start launches the scheduling loop. The loop stops when ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrAlreadyStarted
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.InfoContext(ctx, "backup scheduler started", slog.Time("next", s.Next(s.clock.Now())))
	return nil
}

// Stop cancels the loop and waits for an in-flight cycle to return, or for
// ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		s.logger.Info("backup scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		now := s.clock.Now()
		next := s.Next(now)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
		}

		report, err := s.runner.RunOnce(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "backup cycle failed", slog.Any("error", err))
			continue
		}
		if report.Skipped {
			s.logger.DebugContext(ctx, "backup cycle skipped by scheduler")
		}
	}
}
