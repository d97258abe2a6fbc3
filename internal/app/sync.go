package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/hydromap/internal/adapters/repository"
	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/internal/domain/reconcile"
	"github.com/okian/hydromap/pkg/logger"
	"github.com/okian/hydromap/pkg/metrics"
)

// Sync fetches both sources, reconciles them on the worker pool and commits
// the result. On any failure the previously committed snapshot stays in place.
// A sync overtaken by a newer one returns the newer snapshot.
func (s *Service) Sync(ctx context.Context) (repository.Snapshot, error) {
	return s.sync(ctx, "manual")
}

func (s *Service) sync(ctx context.Context, trigger string) (snap repository.Snapshot, err error) {
	start := time.Now()
	metrics.RecordSyncRequest(trigger)
	defer func() {
		metrics.RecordSyncDuration(float64(time.Since(start).Microseconds()) / 1000)
		s.statsMu.Lock()
		s.lastSyncAt, s.lastSyncErr = time.Now(), err
		s.statsMu.Unlock()
		if err != nil {
			metrics.RecordSyncFailure(failureReason(err))
		}
	}()

	d, err := s.activeDispatcher()
	if err != nil {
		return repository.Snapshot{}, err
	}
	// Reserved before fetching so a slower, older sync cannot overwrite a newer one.
	ticket := s.store.Reserve()

	live, fixtures, err := s.gather(ctx)
	if err != nil {
		return repository.Snapshot{}, err
	}

	syncCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()
	res, err := d.Sync(syncCtx, reconcile.NewRequest(live, fixtures, s.excluded))
	if err != nil {
		return repository.Snapshot{}, err
	}

	source := repository.SourceRealtime
	switch {
	case len(live) == 0:
		source = repository.SourceMock
	case res.Stats.Fixtures > 0:
		source = repository.SourceHybrid
	}

	snap, err = s.store.Commit(ctx, ticket, source, res)
	if errors.Is(err, repository.ErrStaleSnapshot) {
		// A newer sync committed first; its snapshot is the answer.
		if current, ok := s.store.Current(ctx); ok {
			s.logger.Debug(ctx, "sync superseded by a newer snapshot",
				logger.String("trigger", trigger),
				logger.Uint64("ticket", ticket),
				logger.Uint64("current", current.Version),
			)
			return current, nil
		}
	}
	if err != nil {
		return repository.Snapshot{}, err
	}
	s.logger.Info(ctx, "assets synced",
		logger.String("trigger", trigger),
		logger.String("source", snap.Source),
		logger.Uint64("version", snap.Version),
		logger.Int("assets", len(snap.Assets)),
		logger.Int("excluded", snap.Stats.Excluded),
		logger.Duration("took", time.Since(start)),
	)
	return snap, nil
}

// gather loads live rows and fixtures concurrently. A failing or missing
// live feed degrades to fixtures only; a failing fixture source fails the sync.
func (s *Service) gather(ctx context.Context) ([]asset.RawRecord, []asset.Asset, error) {
	var (
		live     []asset.RawRecord
		fixtures []asset.Asset
	)
	g, gctx := errgroup.WithContext(ctx)

	if s.live != nil {
		g.Go(func() error {
			rows, err := s.live.FetchLive(gctx)
			if err != nil {
				metrics.RecordError("source", "live")
				s.logger.Warn(ctx, "live feed unavailable, using fixtures only", logger.Error(err))
				return nil
			}
			live = rows
			return nil
		})
	}
	g.Go(func() error {
		var err error
		fixtures, err = s.fixtures.Fixtures(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		metrics.RecordError("source", "fixtures")
		return nil, nil, err
	}
	return live, fixtures, nil
}
