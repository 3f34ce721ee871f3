package backup

import "context"

// TaskName identifies the backup cycle in the job queue.
const TaskName = "backup_reconcile"

// Task exposes a reconciler as a periodic job for job.WithScheduledTask.
type Task struct {
	runner   Runner
	schedule string
}

// NewTask wraps runner. An empty schedule means DefaultSchedule.
func NewTask(runner Runner, schedule string) *Task {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Task{runner: runner, schedule: schedule}
}

func (t *Task) Name() string { return TaskName }

func (t *Task) Schedule() string { return t.schedule }

// Handle runs one cycle. Only discovery failures fail the job; per-object
// failures are retried by the next cycle.
func (t *Task) Handle(ctx context.Context) error {
	_, err := t.runner.RunOnce(ctx)
	return err
}
