// Package repository holds the committed asset snapshot that read paths serve.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/internal/domain/reconcile"
)

// Snapshot sources.
const (
	SourceRealtime = "realtime" // live feed only
	SourceHybrid   = "hybrid"   // live feed plus fixtures
	SourceMock     = "mock"     // fixtures only
)

// Snapshot is one committed reconcile result. It is never mutated after commit.
type Snapshot struct {
	Version  uint64                 `json:"version"`
	Source   string                 `json:"source"`
	SyncedAt time.Time              `json:"syncedAt"`
	Assets   []asset.Asset          `json:"assets"`
	AssetMap map[string]asset.Asset `json:"-"`
	Stats    reconcile.Stats        `json:"stats"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type     asset.Type
	Status   asset.Status
	Critical bool   // only critical assets
	Query    string // case-insensitive name substring
	Limit    int    // 0 means no limit
}

// Match reports whether a passes every set field.
func (f Filter) Match(a asset.Asset) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Status != "" && !strings.EqualFold(string(a.Status), string(f.Status)) {
		return false
	}
	if f.Critical && !a.IsCritical {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" &&
		!strings.Contains(strings.ToLower(a.Name), strings.ToLower(q)) {
		return false
	}
	return true
}

// Store provides read/write access to the committed snapshot.
type Store interface {
	// Reserve hands out the ticket a sync must present to Commit.
	Reserve() uint64
	// Commit publishes res under ticket. Returns ErrStaleSnapshot if a newer
	// ticket has already been committed.
	Commit(ctx context.Context, ticket uint64, source string, res reconcile.Result) (Snapshot, error)

	// Current returns the latest snapshot, false before the first commit.
	Current(ctx context.Context) (Snapshot, bool)
	// Get returns one asset or ErrNotFound.
	Get(ctx context.Context, id string) (asset.Asset, error)
	// List returns matching assets ordered by id.
	List(ctx context.Context, f Filter) ([]asset.Asset, error)

	CountByType(ctx context.Context) map[asset.Type]int
	CountByStatus(ctx context.Context) map[asset.Status]int
}
