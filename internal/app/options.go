package service

import (
	"time"

	"github.com/okian/hydromap/internal/adapters/repository"
	"github.com/okian/hydromap/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of reconcile workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending sync jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLiveSource sets the live feed. Without one every sync is fixtures only.
func WithLiveSource(src LiveSource) Option {
	return func(s *Service) {
		if src != nil {
			s.live = src
		}
	}
}

// WithFixtureSource sets the static fixture set.
func WithFixtureSource(src FixtureSource) Option {
	return func(s *Service) {
		if src != nil {
			s.fixtures = src
		}
	}
}

// WithStore replaces the in-memory snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithExcludedIDs sets the ids and names dropped from both sources.
func WithExcludedIDs(ids []string) Option {
	return func(s *Service) {
		s.excluded = append([]string(nil), ids...)
	}
}

// WithSyncInterval enables periodic syncs. Zero disables them.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.syncInterval = d
		}
	}
}

// WithSyncTimeout bounds how long one sync waits for the workers.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncTimeout = d
		}
	}
}

// WithSampleWindow sets the per-asset rolling window capacity.
func WithSampleWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sampleWindow = n
		}
	}
}

// WithMaxSearchResults caps Search results.
func WithMaxSearchResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}
