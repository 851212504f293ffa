package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to trigger a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
