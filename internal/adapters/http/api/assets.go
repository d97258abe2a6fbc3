package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/hydromap/internal/adapters/repository"
	"github.com/okian/hydromap/internal/domain/asset"
)

// AssetDependencies defines the read side of the committed snapshot.
type AssetDependencies interface {
	Snapshot(ctx context.Context) (repository.Snapshot, bool)
	Search(ctx context.Context, f repository.Filter) ([]asset.Asset, error)
	Asset(ctx context.Context, id string) (asset.Asset, error)
}

// AssetsHandler handles asset listing and lookup.
type AssetsHandler struct {
	deps    AssetDependencies
	samples *SamplesHandler
}

// NewAssetsHandler creates a new assets handler. Requests for
// /assets/{id}/samples are forwarded to samples.
func NewAssetsHandler(deps AssetDependencies, samples *SamplesHandler) *AssetsHandler {
	return &AssetsHandler{deps: deps, samples: samples}
}

type assetListResponse struct {
	Version  uint64        `json:"version"`
	Source   string        `json:"source"`
	SyncedAt *time.Time    `json:"syncedAt,omitempty"`
	Count    int           `json:"count"`
	Assets   []asset.Asset `json:"assets"`
}

// HandleListAssets handles GET /assets?type=&status=&critical=&q=&limit= requests.
func (h *AssetsHandler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_assets"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	found, err := h.deps.Search(r.Context(), f)
	if err != nil {
		status, code := statusFor(err, http.StatusInternalServerError)
		writeError(w, status, code, Wrap(op, err))
		return
	}

	resp := assetListResponse{Count: len(found), Assets: found}
	if snap, ok := h.deps.Snapshot(r.Context()); ok {
		resp.Version = snap.Version
		resp.Source = snap.Source
		resp.SyncedAt = &snap.SyncedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleAsset handles GET /assets/{id} and routes /assets/{id}/samples.
func (h *AssetsHandler) HandleAsset(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_asset"
	rest := strings.TrimPrefix(r.URL.Path, "/assets/")
	id, sub, hasSub := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if hasSub {
		if sub != "samples" || h.samples == nil {
			http.NotFound(w, r)
			return
		}
		h.samples.Handle(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	a, err := h.deps.Asset(r.Context(), id)
	if err != nil {
		status, code := statusFor(err, http.StatusInternalServerError)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func parseFilter(r *http.Request) (repository.Filter, error) {
	q := r.URL.Query()
	f := repository.Filter{
		Status: asset.Status(strings.TrimSpace(q.Get("status"))),
		Query:  q.Get("q"),
	}
	if t := q.Get("type"); t != "" {
		f.Type = asset.ParseType(t)
	}
	if c := q.Get("critical"); c != "" {
		critical, err := strconv.ParseBool(c)
		if err != nil {
			return f, fmt.Errorf("invalid critical %q", c)
		}
		f.Critical = critical
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return f, fmt.Errorf("invalid limit %q", l)
		}
		f.Limit = n
	}
	return f, nil
}
