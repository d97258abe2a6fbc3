package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("sync queue closed")
	ErrFull   = errors.New("sync queue full")
)
