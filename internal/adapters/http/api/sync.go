package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/okian/hydromap/internal/adapters/repository"
	"github.com/okian/hydromap/internal/domain/reconcile"
)

const maxMessageBody = 16 << 20

// SyncDependencies triggers reconciliation.
type SyncDependencies interface {
	Sync(ctx context.Context) (repository.Snapshot, error)
	SyncPayload(ctx context.Context, req reconcile.Request) (reconcile.Response, error)
}

// SyncHandler handles sync requests.
type SyncHandler struct {
	deps SyncDependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

type syncResponse struct {
	Version  uint64          `json:"version"`
	Source   string          `json:"source"`
	SyncedAt time.Time       `json:"syncedAt"`
	Count    int             `json:"count"`
	Stats    reconcile.Stats `json:"stats"`
}

// HandleSync handles POST /sync requests. On failure the previously
// committed snapshot keeps being served.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Sync(r.Context())
	if err != nil {
		status, code := statusFor(err, http.StatusBadGateway)
		writeError(w, status, code, WrapKind(op, syncKind(status), err))
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{
		Version:  snap.Version,
		Source:   snap.Source,
		SyncedAt: snap.SyncedAt,
		Count:    len(snap.Assets),
		Stats:    snap.Stats,
	})
}

// HandleSyncMessage handles POST /sync/message: a SYNC_ASSETS envelope in,
// SYNC_COMPLETE or SYNC_ERROR out.
func (h *SyncHandler) HandleSyncMessage(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_message"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, reconcile.Failure("", WrapKind(op, ErrBadRequest, err)))
		return
	}
	req, err := reconcile.DecodeRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, reconcile.Failure("", err))
		return
	}

	resp, err := h.deps.SyncPayload(r.Context(), req)
	if err != nil {
		status, code := statusFor(err, http.StatusBadGateway)
		writeError(w, status, code, WrapKind(op, syncKind(status), err))
		return
	}
	if resp.Type != reconcile.TypeSyncComplete {
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// syncKind labels a failed sync: unavailable while the workers are down,
// failed otherwise.
func syncKind(status int) error {
	if status == http.StatusServiceUnavailable {
		return ErrUnavailable
	}
	return ErrSyncFailed
}
