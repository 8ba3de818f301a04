package httptransport

import (
	"encoding/json"
	"net/http"

	"beacon/internal/consent"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

type consentStateResponse struct {
	Decided     bool               `json:"decided"`
	Categories  []consent.Category `json:"categories"`
	Preferences map[string]bool    `json:"preferences"`
}

type consentCustomRequest struct {
	Selections map[string]bool `json:"selections"`
}

func (h *Handler) consentState() consentStateResponse {
	return consentStateResponse{
		Decided:     h.consents.Decided(),
		Categories:  h.consents.Categories(),
		Preferences: h.consents.Preferences(),
	}
}

func (h *Handler) handleConsentState(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, h.consentState())
}

func (h *Handler) handleConsentAccept(w http.ResponseWriter, r *http.Request) {
	h.consents.AcceptAll(r.Context())
	httputil.JSON(w, http.StatusOK, h.consentState())
}

func (h *Handler) handleConsentDecline(w http.ResponseWriter, r *http.Request) {
	h.consents.DeclineAll(r.Context())
	httputil.JSON(w, http.StatusOK, h.consentState())
}

func (h *Handler) handleConsentCustom(w http.ResponseWriter, r *http.Request) {
	var req consentCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.consents.SaveCustom(r.Context(), req.Selections)
	httputil.JSON(w, http.StatusOK, h.consentState())
}

func (h *Handler) handleConsentReset(w http.ResponseWriter, r *http.Request) {
	h.consents.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
