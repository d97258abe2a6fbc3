// Package service wires the asset pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/hydromap/internal/adapters/mq/queue"
	"github.com/okian/hydromap/internal/adapters/mq/worker"
	"github.com/okian/hydromap/internal/adapters/repository"
	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/internal/domain/filterfsm"
	"github.com/okian/hydromap/internal/domain/reconcile"
	"github.com/okian/hydromap/internal/domain/ringbuffer"
	"github.com/okian/hydromap/internal/domain/telemetry"
	"github.com/okian/hydromap/pkg/logger"
	"github.com/okian/hydromap/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// LiveSource fetches the loosely typed live asset rows.
type LiveSource interface {
	FetchLive(ctx context.Context) ([]asset.RawRecord, error)
}

// FixtureSource supplies the static asset set.
type FixtureSource interface {
	Fixtures(ctx context.Context) ([]asset.Asset, error)
}

// Service owns the worker pool, the committed snapshot, the filter machine
// and the per-asset telemetry windows.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	queue      queue.Queue
	pool       *worker.Pool
	dispatcher *worker.Dispatcher
	live       LiveSource
	fixtures   FixtureSource
	filter     *filterfsm.Machine

	// Configuration
	workerCount  int
	queueSize    int
	excluded     []string
	syncInterval time.Duration
	syncTimeout  time.Duration
	sampleWindow int
	maxResults   int

	// Telemetry windows; a Buffer is not safe for concurrent use on its own.
	samplesMu sync.Mutex
	samples   map[string]*ringbuffer.Buffer[telemetry.Sample]

	// Search runs are serialized so the filter machine sees one run at a time.
	searchMu sync.Mutex

	// Sync bookkeeping
	statsMu     sync.Mutex
	lastSyncErr error
	lastSyncAt  time.Time

	// State
	started  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    64,
		syncTimeout:  10 * time.Second,
		sampleWindow: 100,
		maxResults:   500,
		samples:      make(map[string]*ringbuffer.Buffer[telemetry.Sample]),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	s.filter = filterfsm.New(filterfsm.WithObserver(observeFilter))
	return s
}

func observeFilter(_, to filterfsm.State, _ filterfsm.Event, applied bool) {
	if applied {
		metrics.RecordFilterTransition(to.String())
		return
	}
	metrics.RecordFilterIgnored()
}

// Start launches the worker pool and, when an interval is configured, the
// periodic sync loop. The first periodic sync runs immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.fixtures == nil {
		return ErrNoFixtures
	}

	s.logger.Info(ctx, "starting asset service...")

	// Components outlive the caller's ctx. Workers exit once Stop closes
	// the queue and they have answered what is left in it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue)
	s.pool.Start(context.WithoutCancel(ctx))
	s.dispatcher = worker.NewDispatcher(s.queue)

	s.loopDone = make(chan struct{})
	if s.syncInterval > 0 {
		go s.syncLoop(runCtx, s.loopDone)
	} else {
		close(s.loopDone)
	}

	s.started = true
	s.logger.Info(ctx, "asset service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("live", s.live != nil),
		logger.Duration("syncInterval", s.syncInterval),
	)
	return nil
}

// Stop ends the sync loop and drains the worker pool.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	// New syncs are refused from here on; the loop may still be finishing one.
	s.started = false
	stopLoop, loopDone, pool := s.cancel, s.loopDone, s.pool
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping asset service...")

	stopLoop()
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}

	s.logger.Info(ctx, "asset service stopped")
}

func (s *Service) syncLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		if _, err := s.sync(ctx, "interval"); err != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "periodic sync failed, keeping previous snapshot", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) activeDispatcher() (*worker.Dispatcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.dispatcher, nil
}

// Snapshot returns the committed snapshot, false before the first sync.
func (s *Service) Snapshot(ctx context.Context) (repository.Snapshot, bool) {
	return s.store.Current(ctx)
}

// Asset returns one asset from the committed snapshot.
func (s *Service) Asset(ctx context.Context, id string) (asset.Asset, error) {
	return s.store.Get(ctx, id)
}

// Search lists assets matching f and drives the filter machine through
// one run: Start (or Retry after an error), then Success, NoResults or Fail.
func (s *Service) Search(ctx context.Context, f repository.Filter) ([]asset.Asset, error) {
	s.searchMu.Lock()
	defer s.searchMu.Unlock()

	if s.filter.State() == filterfsm.Error {
		s.filter.Transition(filterfsm.Retry)
	} else {
		s.filter.Transition(filterfsm.Start)
	}

	if f.Limit == 0 || f.Limit > s.maxResults {
		f.Limit = s.maxResults
	}
	found, err := s.store.List(ctx, f)
	switch {
	case err != nil:
		s.filter.Transition(filterfsm.Fail)
		metrics.RecordError("search", "list")
		return nil, err
	case len(found) == 0:
		s.filter.Transition(filterfsm.NoResults)
	default:
		s.filter.Transition(filterfsm.Success)
	}
	return found, nil
}

// FilterState returns the current filter state.
func (s *Service) FilterState() filterfsm.State {
	return s.filter.State()
}

// FilterEvent applies a named event. Events that are not valid in the
// current state leave it unchanged and report applied=false.
func (s *Service) FilterEvent(name string) (state filterfsm.State, applied bool, err error) {
	e, err := filterfsm.ParseEvent(name)
	if err != nil {
		return s.filter.State(), false, err
	}
	applied = s.filter.Transition(e)
	return s.filter.State(), applied, nil
}

// RecordSample appends a reading to the asset's rolling window, creating
// the window on first use. Once full, the oldest reading is dropped.
func (s *Service) RecordSample(ctx context.Context, assetID string, sample telemetry.Sample) (telemetry.Sample, error) {
	if _, err := s.store.Get(ctx, assetID); err != nil {
		return telemetry.Sample{}, err
	}
	if err := sample.Validate(time.Now()); err != nil {
		return telemetry.Sample{}, err
	}

	s.samplesMu.Lock()
	defer s.samplesMu.Unlock()

	buf, ok := s.samples[assetID]
	if !ok {
		var err error
		if buf, err = ringbuffer.New[telemetry.Sample](s.sampleWindow); err != nil {
			return telemetry.Sample{}, fmt.Errorf("sample window for %s: %w", assetID, err)
		}
		s.samples[assetID] = buf
		metrics.UpdateSampleWindows(len(s.samples))
	}
	buf.Push(sample)
	metrics.RecordSample()
	return sample, nil
}

// Samples returns the asset's window, oldest first.
func (s *Service) Samples(ctx context.Context, assetID string) ([]telemetry.Sample, error) {
	if _, err := s.store.Get(ctx, assetID); err != nil {
		return nil, err
	}

	s.samplesMu.Lock()
	defer s.samplesMu.Unlock()

	buf, ok := s.samples[assetID]
	if !ok {
		return []telemetry.Sample{}, nil
	}
	return buf.Slice(), nil
}

// SyncPayload runs an externally supplied SYNC_ASSETS message through the
// workers. The store is not touched. A SYNC_ERROR answer is returned as a
// response, not an error.
func (s *Service) SyncPayload(ctx context.Context, req reconcile.Request) (reconcile.Response, error) {
	metrics.RecordSyncRequest("message")
	d, err := s.activeDispatcher()
	if err != nil {
		return reconcile.Response{}, err
	}

	syncCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()
	resp, err := d.Dispatch(syncCtx, req)
	if err != nil {
		metrics.RecordSyncFailure(failureReason(err))
		return reconcile.Response{}, err
	}
	return resp, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"liveSource":  s.live != nil,
		"filterState": s.filter.State().String(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len()
	}

	if snap, ok := s.store.Current(ctx); ok {
		stats["snapshotVersion"] = snap.Version
		stats["source"] = snap.Source
		stats["syncedAt"] = snap.SyncedAt
		stats["totalAssets"] = len(snap.Assets)
		stats["byType"] = s.store.CountByType(ctx)
		stats["byStatus"] = s.store.CountByStatus(ctx)
		stats["reconcile"] = snap.Stats
	}

	s.samplesMu.Lock()
	stats["sampleWindows"] = len(s.samples)
	s.samplesMu.Unlock()

	s.statsMu.Lock()
	if !s.lastSyncAt.IsZero() {
		stats["lastSyncAt"] = s.lastSyncAt
	}
	if s.lastSyncErr != nil {
		stats["lastSyncError"] = s.lastSyncErr.Error()
	}
	s.statsMu.Unlock()

	return stats
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, worker.ErrQueueFull):
		return "queue_full"
	case errors.Is(err, worker.ErrStopped), errors.Is(err, ErrNotStarted):
		return "stopped"
	case errors.Is(err, worker.ErrSyncFailed):
		return "reconcile"
	case errors.Is(err, repository.ErrStaleSnapshot):
		return "stale"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "source"
	}
}
