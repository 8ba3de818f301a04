package httptransport

import (
	"encoding/json"
	"net/http"
	"net/url"

	"beacon/internal/session"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

type sessionStateResponse struct {
	Authenticated bool              `json:"authenticated"`
	Identity      *session.Identity `json:"identity,omitempty"`
}

type urlResponse struct {
	URL string `json:"url"`
}

type callbackRequest struct {
	URL string `json:"url"`
}

type callbackResponse struct {
	Consumed   bool   `json:"consumed"`
	CurrentURL string `json:"current_url"`
}

func (h *Handler) handleSessionState(w http.ResponseWriter, r *http.Request) {
	resp := sessionStateResponse{Authenticated: h.sessions.IsAuthenticated(r.Context())}
	if identity, ok := h.sessions.CurrentIdentity(r.Context()); ok {
		resp.Identity = &identity
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	httputil.JSON(w, http.StatusOK, urlResponse{URL: h.sessions.BuildAuthorizationURL(provider).String()})
}

func (h *Handler) handleRegistrationURL(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, urlResponse{URL: h.sessions.BuildRegistrationURL().String()})
}

func (h *Handler) handleSignOutURL(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, urlResponse{URL: h.sessions.BuildSignOutURL().String()})
}

// handleCallback replays the hosted-auth redirect URL so the fragment
// consumer can store the tokens and strip the fragment.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid callback URL"))
		return
	}
	h.location.Replace(u)

	consumed, err := h.sessions.ConsumeRedirectFragment(r.Context())
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, callbackResponse{
		Consumed:   consumed,
		CurrentURL: h.location.Current().String(),
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
