package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/hydromap/internal/domain/telemetry"
)

const maxSampleBody = 64 << 10

// SampleDependencies defines the telemetry window operations.
type SampleDependencies interface {
	RecordSample(ctx context.Context, assetID string, s telemetry.Sample) (telemetry.Sample, error)
	Samples(ctx context.Context, assetID string) ([]telemetry.Sample, error)
}

// SamplesHandler handles /assets/{id}/samples requests.
type SamplesHandler struct {
	deps SampleDependencies
}

// NewSamplesHandler creates a new samples handler.
func NewSamplesHandler(deps SampleDependencies) *SamplesHandler {
	return &SamplesHandler{deps: deps}
}

type samplesResponse struct {
	AssetID string             `json:"assetId"`
	Samples []telemetry.Sample `json:"samples"`
}

// Handle dispatches on method for the given asset.
func (h *SamplesHandler) Handle(w http.ResponseWriter, r *http.Request, assetID string) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, assetID)
	case http.MethodPost:
		h.handleRecord(w, r, assetID)
	default:
		http.NotFound(w, r)
	}
}

func (h *SamplesHandler) handleList(w http.ResponseWriter, r *http.Request, assetID string) {
	const op = "api.list_samples"
	samples, err := h.deps.Samples(r.Context(), assetID)
	if err != nil {
		status, code := statusFor(err, http.StatusInternalServerError)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, samplesResponse{AssetID: assetID, Samples: samples})
}

func (h *SamplesHandler) handleRecord(w http.ResponseWriter, r *http.Request, assetID string) {
	const op = "api.record_sample"
	var in telemetry.Sample
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSampleBody)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	stored, err := h.deps.RecordSample(r.Context(), assetID, in)
	if err != nil {
		status, code := statusFor(err, http.StatusInternalServerError)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
