package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrStopped    = errors.New("reconcile workers stopped")
	ErrQueueFull  = errors.New("reconcile queue full")
	ErrSyncFailed = errors.New("reconcile failed")
)
