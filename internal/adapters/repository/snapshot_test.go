package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/internal/domain/reconcile"
)

func testResult() reconcile.Result {
	live := []asset.RawRecord{
		{"id": "pump-2", "name": "Hostel Pump", "type": "pump", "status": "Running", "is_critical": true},
		{"id": "pump-1", "name": "Main Pump", "type": "pump", "status": "Not Working"},
	}
	fixtures := []asset.Asset{
		{ID: "oht-1", Name: "Bakul OHT", Type: asset.TypeTank, Status: asset.StatusNormal},
		{ID: "sump-1", Name: "Sump S1", Type: asset.TypeSump, Status: asset.StatusNormal},
	}
	return reconcile.Merge(live, fixtures, nil)
}

func TestSnapshotStore_Empty(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()

	if _, ok := s.Current(ctx); ok {
		t.Fatal("expected no snapshot before first commit")
	}
	if _, err := s.Get(ctx, "pump-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := s.List(ctx, Filter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v, %v", list, err)
	}
	if n := len(s.CountByType(ctx)); n != 0 {
		t.Errorf("expected no type counts, got %d", n)
	}
}

func TestSnapshotStore_Commit(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSnapshotStore(WithClock(func() time.Time { return at }))

	ticket := s.Reserve()
	snap, err := s.Commit(ctx, ticket, SourceHybrid, testResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version != ticket || snap.Source != SourceHybrid || !snap.SyncedAt.Equal(at) {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}

	cur, ok := s.Current(ctx)
	if !ok || len(cur.Assets) != 4 {
		t.Fatalf("expected 4 committed assets, got %d", len(cur.Assets))
	}

	a, err := s.Get(ctx, "oht-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "Bakul OHT" {
		t.Errorf("expected Bakul OHT, got %s", a.Name)
	}

	types := s.CountByType(ctx)
	if types[asset.TypePump] != 2 || types[asset.TypeTank] != 1 || types[asset.TypeSump] != 1 {
		t.Errorf("unexpected type counts: %v", types)
	}
	statuses := s.CountByStatus(ctx)
	if statuses[asset.StatusNormal] != 2 || statuses[asset.StatusRunning] != 1 {
		t.Errorf("unexpected status counts: %v", statuses)
	}
}

func TestSnapshotStore_StaleCommit(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()

	older := s.Reserve()
	newer := s.Reserve()

	if _, err := s.Commit(ctx, newer, SourceRealtime, testResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Commit(ctx, older, SourceMock, reconcile.Result{}); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
	if _, err := s.Commit(ctx, newer, SourceMock, reconcile.Result{}); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected recommit to be stale, got %v", err)
	}

	cur, _ := s.Current(ctx)
	if cur.Source != SourceRealtime || cur.Version != newer {
		t.Errorf("newer snapshot was overwritten: %+v", cur)
	}

	if _, err := s.Commit(ctx, 0, SourceMock, reconcile.Result{}); !errors.Is(err, ErrUnknownTicket) {
		t.Errorf("expected ErrUnknownTicket for zero ticket, got %v", err)
	}
	if _, err := s.Commit(ctx, newer+10, SourceMock, reconcile.Result{}); !errors.Is(err, ErrUnknownTicket) {
		t.Errorf("expected ErrUnknownTicket for unissued ticket, got %v", err)
	}
}

func TestSnapshotStore_CommitWithoutMap(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	res := testResult()
	res.AssetMap = nil

	if _, err := s.Commit(ctx, s.Reserve(), SourceRealtime, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get(ctx, "sump-1"); err != nil {
		t.Errorf("expected map to be rebuilt, got %v", err)
	}
}

func TestSnapshotStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	if _, err := s.Commit(ctx, s.Reserve(), SourceHybrid, testResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all sorted by id", Filter{}, []string{"oht-1", "pump-1", "pump-2", "sump-1"}},
		{"by type", Filter{Type: asset.TypePump}, []string{"pump-1", "pump-2"}},
		{"by status case-insensitive", Filter{Status: "not working"}, []string{"pump-1"}},
		{"critical only", Filter{Critical: true}, []string{"pump-2"}},
		{"name query", Filter{Query: "PUMP"}, []string{"pump-1", "pump-2"}},
		{"limit", Filter{Limit: 2}, []string{"oht-1", "pump-1"}},
		{"no match", Filter{Type: asset.TypeGovt}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d assets, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}

	if _, err := s.List(ctx, Filter{Limit: -1}); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestSnapshotStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()

	const syncs = 50
	tickets := make([]uint64, syncs)
	for i := range tickets {
		tickets[i] = s.Reserve()
	}

	var wg sync.WaitGroup
	for _, ticket := range tickets {
		wg.Add(1)
		go func(ticket uint64) {
			defer wg.Done()
			_, _ = s.Commit(ctx, ticket, SourceRealtime, testResult())
			_, _ = s.List(ctx, Filter{})
		}(ticket)
	}
	wg.Wait()

	cur, ok := s.Current(ctx)
	if !ok {
		t.Fatal("expected a committed snapshot")
	}
	// Whatever order the goroutines ran in, a later ticket is never replaced by an earlier one.
	if _, err := s.Commit(ctx, cur.Version, SourceMock, testResult()); !errors.Is(err, ErrStaleSnapshot) {
		t.Errorf("expected committed version to be final, got %v", err)
	}
}
