// Package db opens the Postgres pool used by the River job queue.
//
// Postgres is optional for the receipt gateway. When DATABASE_URL is set,
// the backup cycle runs as a leader-elected River periodic job so that only
// one replica copies at a time; otherwise the in-process scheduler is used.
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Shutdown(pool)(ctx)
//
// Connect retries with linear backoff (RetryAttempts, RetryInterval) and
// pings each new pool before returning it. [Healthcheck] adapts the pool to
// a readiness check.
package db
