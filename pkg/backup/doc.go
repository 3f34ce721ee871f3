// Package backup replicates receipts from the primary container into the
// backup container.
//
// Every object is written tagged backup=needed. A Reconciler cycle finds
// those objects through a PendingSource, issues a short-lived read grant
// for each, has the backup container copy from the grant URL, and finally
// tags the source backup=done. Failures leave the tag untouched, so the
// object is picked up again by the next cycle; copying is idempotent.
//
// Cycles never overlap within a process. A Locker such as redis.Lease
// extends that guarantee across replicas. Cycles are driven either by the
// in-process Scheduler or, when Postgres is available, by a River periodic
// job built from Task.
package backup
