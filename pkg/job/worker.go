package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

// runArgs is the payload of every job this package inserts. One job kind
// serves all tasks; the name selects the handler.
type runArgs struct {
	Task string `json:"task"`
}

func (runArgs) Kind() string { return "receiptd:task" }

type runWorker struct {
	river.WorkerDefaults[runArgs]

	tasks   map[string]func(context.Context) error
	logger  *slog.Logger
	timeout time.Duration
}

func (w *runWorker) Timeout(*river.Job[runArgs]) time.Duration { return w.timeout }

func (w *runWorker) Work(ctx context.Context, j *river.Job[runArgs]) error {
	run, ok := w.tasks[j.Args.Task]
	if !ok {
		// Cancel rather than retry: no replica of this build knows the task.
		return river.JobCancel(fmt.Errorf("%w: %s", ErrUnknownTask, j.Args.Task))
	}

	log := w.logger.With(
		slog.String("task", j.Args.Task),
		slog.Int64("job_id", j.ID),
		slog.Int("attempt", j.Attempt),
	)
	start := time.Now()
	if err := run(ctx); err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err))
		return err
	}
	log.DebugContext(ctx, "task done", slog.Duration("took", time.Since(start)))
	return nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// cronSchedule adapts a robfig cron schedule to river.PeriodicSchedule.
type cronSchedule struct{ cron.Schedule }

func parseSchedule(expr string) (river.PeriodicSchedule, error) {
	s, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
	}
	return cronSchedule{s}, nil
}
