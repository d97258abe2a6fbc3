package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/hydromap/internal/domain/asset"
)

// Message type tags exchanged with the reconcile workers.
const (
	TypeSyncAssets   = "SYNC_ASSETS"
	TypeSyncComplete = "SYNC_COMPLETE"
	TypeSyncError    = "SYNC_ERROR"
)

// SyncPayload carries the three merge inputs.
type SyncPayload struct {
	SupabaseData []asset.RawRecord `json:"supabaseData"`
	MockData     []asset.Asset     `json:"mockData"`
	ExcludedIDs  []string          `json:"excludedIds"`
}

// Request asks a worker to reconcile one payload.
type Request struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload SyncPayload `json:"payload"`
}

// CompletePayload carries the merge output.
type CompletePayload struct {
	Assets   []asset.Asset          `json:"assets"`
	AssetMap map[string]asset.Asset `json:"assetMap"`
	Stats    Stats                  `json:"stats"`
}

// Response answers exactly one Request.
type Response struct {
	Type    string           `json:"type"`
	ID      string           `json:"id,omitempty"`
	Payload *CompletePayload `json:"payload,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewRequest builds a SYNC_ASSETS request with a fresh id.
func NewRequest(live []asset.RawRecord, fixtures []asset.Asset, excluded []string) Request {
	return Request{
		Type: TypeSyncAssets,
		ID:   uuid.NewString(),
		Payload: SyncPayload{
			SupabaseData: live,
			MockData:     fixtures,
			ExcludedIDs:  excluded,
		},
	}
}

// DecodeRequest parses a SYNC_ASSETS message. Any structural problem (not an
// object, wrong tag, collections that are not arrays, rows that are not
// objects) is reported as ErrUnreadablePayload.
func DecodeRequest(data []byte) (Request, error) {
	var envelope struct {
		Type    string          `json:"type"`
		ID      string          `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrUnreadablePayload, err)
	}
	if envelope.Type != TypeSyncAssets {
		return Request{}, fmt.Errorf("%w: unexpected message type %q", ErrUnreadablePayload, envelope.Type)
	}
	if len(bytes.TrimSpace(envelope.Payload)) == 0 || bytes.Equal(bytes.TrimSpace(envelope.Payload), []byte("null")) {
		return Request{}, fmt.Errorf("%w: missing payload", ErrUnreadablePayload)
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Payload))
	// Keep numeric ids and coordinates exact until Normalize coerces them.
	dec.UseNumber()
	var payload SyncPayload
	if err := dec.Decode(&payload); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrUnreadablePayload, err)
	}

	req := Request{Type: TypeSyncAssets, ID: envelope.ID, Payload: payload}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

// Handle runs one request through Merge and builds the single response.
func Handle(req Request) Response {
	if req.Type != TypeSyncAssets {
		return Failure(req.ID, fmt.Errorf("%w: unexpected message type %q", ErrUnreadablePayload, req.Type))
	}
	res := Merge(req.Payload.SupabaseData, req.Payload.MockData, req.Payload.ExcludedIDs)
	return Response{
		Type: TypeSyncComplete,
		ID:   req.ID,
		Payload: &CompletePayload{
			Assets:   res.Assets,
			AssetMap: res.AssetMap,
			Stats:    res.Stats,
		},
	}
}

// Failure builds a SYNC_ERROR response.
func Failure(id string, err error) Response {
	return Response{Type: TypeSyncError, ID: id, Error: err.Error()}
}

// Result converts a SYNC_COMPLETE response back into a Result.
func (r Response) Result() (Result, error) {
	if r.Type != TypeSyncComplete || r.Payload == nil {
		return Result{}, fmt.Errorf("sync %s failed: %s", r.ID, r.Error)
	}
	return Result{Assets: r.Payload.Assets, AssetMap: r.Payload.AssetMap, Stats: r.Payload.Stats}, nil
}
