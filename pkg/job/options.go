package job

import (
	"context"
	"log/slog"
	"time"
)

type settings struct {
	logger     *slog.Logger
	tasks      []periodicTask
	maxWorkers int
	timeout    time.Duration
	runOnStart bool
}

func defaultSettings() settings {
	return settings{
		logger:     slog.New(slog.DiscardHandler),
		maxWorkers: 4,
		timeout:    30 * time.Minute,
	}
}

type periodicTask struct {
	name     string
	schedule string
	run      func(context.Context) error
}

// Option configures a Manager.
type Option func(*settings)

// WithScheduledTask registers a periodic task. Any value with these three
// methods works; Schedule returns a five-field cron expression.
//
//	job.WithScheduledTask(backup.NewTask(reconciler, "10 * * * *"))
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(s *settings) {
		s.tasks = append(s.tasks, periodicTask{
			name:     task.Name(),
			schedule: task.Schedule(),
			run:      task.Handle,
		})
	}
}

// WithRunOnStart also fires every periodic task once when the elected
// leader starts.
func WithRunOnStart() Option {
	return func(s *settings) { s.runOnStart = true }
}

// WithLogger sets the logger for the manager and the River client. Nil is
// ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxWorkers bounds concurrent runs on the default queue.
func WithMaxWorkers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// WithJobTimeout bounds a single task run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}
