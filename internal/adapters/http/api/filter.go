package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/hydromap/internal/domain/filterfsm"
)

// FilterDependencies exposes the filter state machine.
type FilterDependencies interface {
	FilterState() filterfsm.State
	FilterEvent(name string) (filterfsm.State, bool, error)
}

// FilterHandler handles filter state requests.
type FilterHandler struct {
	deps FilterDependencies
}

// NewFilterHandler creates a new filter handler.
func NewFilterHandler(deps FilterDependencies) *FilterHandler {
	return &FilterHandler{deps: deps}
}

type filterEventRequest struct {
	Event string `json:"event"`
}

type filterStateResponse struct {
	State   filterfsm.State `json:"state"`
	Applied *bool           `json:"applied,omitempty"`
}

// HandleGetFilter handles GET /filter requests.
func (h *FilterHandler) HandleGetFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, filterStateResponse{State: h.deps.FilterState()})
}

// HandlePostEvent handles POST /filter/events requests. An event that is not
// valid in the current state is answered with 200 and applied=false.
func (h *FilterHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.filter_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req filterEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	state, applied, err := h.deps.FilterEvent(req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, filterStateResponse{State: state, Applied: &applied})
}
