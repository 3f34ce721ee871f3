package job

import "errors"

var (
	ErrUnknownTask       = errors.New("job: unknown task")
	ErrDuplicateTask     = errors.New("job: task registered twice")
	ErrInvalidSchedule   = errors.New("job: invalid cron schedule")
	ErrAlreadyStarted    = errors.New("job: already started")
	ErrNotStarted        = errors.New("job: not started")
	ErrPoolRequired      = errors.New("job: pool is required")
	ErrMigrationFailed   = errors.New("job: migration failed")
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
)
