// Package reconcile merges the live asset feed with static fixtures into one
// keyed collection. Live rows win over fixtures sharing an id, and anything
// on the exclusion list (by id or by name) is dropped from both sources.
package reconcile

import (
	"github.com/okian/hydromap/internal/domain/asset"
)

// Stats counts what happened to the input records during one merge.
type Stats struct {
	Live     int `json:"live"`     // live rows kept
	Fixtures int `json:"fixtures"` // fixtures kept
	Excluded int `json:"excluded"` // rows from either source matched by the exclusion set
	Shadowed int `json:"shadowed"` // fixtures skipped because a live row owns the id
	Dropped  int `json:"dropped"`  // rows without a usable id
}

// Result is a freshly allocated merge output owned by the caller.
type Result struct {
	// Assets holds the AssetMap values: live rows first, then fixtures, each in input order.
	Assets   []asset.Asset
	AssetMap map[string]asset.Asset
	Stats    Stats
}

// Merge reconciles live rows and fixtures. Live rows are processed strictly
// before fixtures so that live values take precedence. Inputs are not modified.
func Merge(live []asset.RawRecord, fixtures []asset.Asset, excluded []string) Result {
	exclusion := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		exclusion[e] = struct{}{}
	}
	isExcluded := func(a asset.Asset) bool {
		if _, ok := exclusion[a.ID]; ok {
			return true
		}
		_, ok := exclusion[a.Name]
		return ok
	}

	res := Result{
		Assets:   make([]asset.Asset, 0, len(live)+len(fixtures)),
		AssetMap: make(map[string]asset.Asset, len(live)+len(fixtures)),
	}
	put := func(a asset.Asset) {
		if _, exists := res.AssetMap[a.ID]; exists {
			// A repeated live id replaces the earlier row in place.
			for i := range res.Assets {
				if res.Assets[i].ID == a.ID {
					res.Assets[i] = a
					break
				}
			}
		} else {
			res.Assets = append(res.Assets, a)
		}
		res.AssetMap[a.ID] = a
	}

	for _, raw := range live {
		a, ok := asset.Normalize(raw)
		if !ok {
			res.Stats.Dropped++
			continue
		}
		if isExcluded(a) {
			res.Stats.Excluded++
			continue
		}
		if _, dup := res.AssetMap[a.ID]; !dup {
			res.Stats.Live++
		}
		put(a)
	}

	for _, f := range fixtures {
		if f.ID == "" {
			res.Stats.Dropped++
			continue
		}
		if _, taken := res.AssetMap[f.ID]; taken {
			res.Stats.Shadowed++
			continue
		}
		if isExcluded(f) {
			res.Stats.Excluded++
			continue
		}
		res.Stats.Fixtures++
		put(f)
	}
	return res
}
