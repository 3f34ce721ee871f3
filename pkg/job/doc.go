// Package job runs periodic tasks on River, the Postgres-native job queue.
//
// River elects a single leader per database, so a periodic task registered
// on every replica still fires once per cron tick. The receipt gateway uses
// it to run the backup reconciliation cycle cluster-wide when DATABASE_URL
// is configured; without Postgres the in-process backup.Scheduler is used.
//
// # Tasks
//
// Tasks are structs with Name, Schedule and Handle methods. No interface
// import is required:
//
//	type Reconcile struct{ r *backup.Reconciler }
//
//	func (t *Reconcile) Name() string     { return "backup_reconcile" }
//	func (t *Reconcile) Schedule() string { return "10 * * * *" }
//	func (t *Reconcile) Handle(ctx context.Context) error {
//	    _, err := t.r.RunOnce(ctx)
//	    return err
//	}
//
//	if err := job.Migrate(ctx, pool); err != nil {
//	    return err
//	}
//	manager, err := job.NewManager(pool,
//	    job.WithScheduledTask(&Reconcile{r: reconciler}),
//	    job.WithLogger(logger),
//	)
//
// Trigger enqueues an immediate run of a registered task.
//
// Registering two tasks under one name fails NewManager with
// [ErrDuplicateTask]; a bad cron expression fails it with
// [ErrInvalidSchedule].
package job
