package scheduler

import "errors"

var (
	// ErrSweepInProgress is returned when a sweep is requested while one is running
	ErrSweepInProgress = errors.New("drift sweep already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
