package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"

	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

type trackRequest struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

type trackResponse struct {
	Pending int `json:"pending"`
}

// handleTrack accepts an event unconditionally; the gate decides whether it
// is forwarded now, queued for consent, or eventually dropped.
func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "event name is required"))
		return
	}
	h.gate.Track(r.Context(), req.Name, req.Params)
	httputil.JSON(w, http.StatusAccepted, trackResponse{Pending: h.gate.PendingCount()})
}
