package service

import (
	"errors"
	"fmt"

	"github.com/okian/hydromap/internal/adapters/mq/worker"
)

// Sentinel kinds for service errors.
var (
	// ErrNotStarted matches worker.ErrStopped under errors.Is.
	ErrNotStarted = fmt.Errorf("service not started: %w", worker.ErrStopped)
	ErrNoFixtures = errors.New("fixture source not configured")
)
