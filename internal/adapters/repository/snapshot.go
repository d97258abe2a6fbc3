package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/internal/domain/reconcile"
	"github.com/okian/hydromap/pkg/metrics"
)

// SnapshotStore is an in-memory Store. Readers load the current snapshot
// through an atomic pointer and never block on a commit.
type SnapshotStore struct {
	issued atomic.Uint64

	mu        sync.Mutex // serializes Commit
	committed uint64

	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve implements Store.Reserve.
func (s *SnapshotStore) Reserve() uint64 {
	return s.issued.Add(1)
}

// Commit implements Store.Commit.
func (s *SnapshotStore) Commit(ctx context.Context, ticket uint64, source string, res reconcile.Result) (Snapshot, error) {
	if ticket == 0 || ticket > s.issued.Load() {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnknownTicket, ticket)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket <= s.committed {
		metrics.RecordStaleCommit()
		return Snapshot{}, fmt.Errorf("%w: ticket %d, committed %d", ErrStaleSnapshot, ticket, s.committed)
	}

	snap := &Snapshot{
		Version:  ticket,
		Source:   source,
		SyncedAt: s.now(),
		Assets:   res.Assets,
		AssetMap: res.AssetMap,
		Stats:    res.Stats,
	}
	if snap.AssetMap == nil {
		snap.AssetMap = make(map[string]asset.Asset, len(snap.Assets))
		for _, a := range snap.Assets {
			snap.AssetMap[a.ID] = a
		}
	}
	s.committed = ticket
	s.snapshot.Store(snap)

	byType := make(map[string]int)
	for _, a := range snap.Assets {
		byType[string(a.Type)]++
	}
	metrics.UpdateSnapshot(snap.Version, snap.SyncedAt.Unix(), byType)
	return *snap, nil
}

// Current implements Store.Current.
func (s *SnapshotStore) Current(ctx context.Context) (Snapshot, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return Snapshot{}, false
	}
	return *snap, true
}

// Get implements Store.Get.
func (s *SnapshotStore) Get(ctx context.Context, id string) (asset.Asset, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return asset.Asset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a, ok := snap.AssetMap[id]
	if !ok {
		return asset.Asset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// List implements Store.List.
func (s *SnapshotStore) List(ctx context.Context, f Filter) ([]asset.Asset, error) {
	if f.Limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, f.Limit)
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return []asset.Asset{}, nil
	}

	out := make([]asset.Asset, 0, len(snap.Assets))
	for _, a := range snap.Assets {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// CountByType implements Store.CountByType.
func (s *SnapshotStore) CountByType(ctx context.Context) map[asset.Type]int {
	counts := make(map[asset.Type]int)
	if snap := s.snapshot.Load(); snap != nil {
		for _, a := range snap.Assets {
			counts[a.Type]++
		}
	}
	return counts
}

// CountByStatus implements Store.CountByStatus.
func (s *SnapshotStore) CountByStatus(ctx context.Context) map[asset.Status]int {
	counts := make(map[asset.Status]int)
	if snap := s.snapshot.Load(); snap != nil {
		for _, a := range snap.Assets {
			counts[a.Status]++
		}
	}
	return counts
}
