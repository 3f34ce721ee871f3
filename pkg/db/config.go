package db

import "time"

// Config holds the Postgres pool settings for the job queue. An empty
// ConnectionString disables Postgres and the service falls back to the
// in-process backup scheduler.
type Config struct {
	ConnectionString string `env:"DATABASE_URL"`

	HealthCheckPeriod time.Duration `env:"DATABASE_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"30m"`

	// Attempt n waits n*RetryInterval before the next one.
	RetryAttempts int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"5s"`

	// River keeps a listener connection plus one per busy worker.
	MaxOpenConns int32 `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"8"`
	MinConns     int32 `env:"DATABASE_MIN_CONNS" envDefault:"1"`
}

// Enabled reports whether a connection string is configured.
func (c Config) Enabled() bool {
	return c.ConnectionString != ""
}
