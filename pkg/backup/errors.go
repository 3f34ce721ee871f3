package backup

import "errors"

// Sentinel errors for backup cycles.
var (
	ErrDiscoveryFailed = errors.New("backup: discovery failed")
	ErrLockFailed      = errors.New("backup: lock failed")
	ErrInvalidSchedule = errors.New("backup: invalid schedule")
	ErrAlreadyStarted  = errors.New("backup: scheduler already started")
)
