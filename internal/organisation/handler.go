package organisation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/platform/middleware"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

// Handler exposes the organisation resource over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the organisation routes; callers wrap them in RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/organisation", h.handleCreate)
	r.Get("/organisation", h.handleGet)
	r.Put("/organisation", h.handleUpdate)
	r.Delete("/organisation", h.handleDelete)
	r.Post("/organisation/leave", h.handleLeave)
	r.Post("/organisation/invitations", h.handleInvite)
	r.Post("/organisation/invitations/{invitationID}/accept", h.handleAcceptInvite)
	r.Delete("/organisation/members/{userID}", h.handleRemoveMember)
	r.Put("/organisation/members/{userID}", h.handleUpdateMemberRole)
}

type organisationRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type acceptRequest struct {
	Token string `json:"token"`
}

type roleRequest struct {
	Role Role `json:"role"`
}

type organisationResponse struct {
	Organisation Organisation `json:"organisation"`
	Members      []Member     `json:"members"`
}

type inviteResponse struct {
	Invitation Invitation `json:"invitation"`
	// Token is the plaintext invite token, returned exactly once.
	Token string `json:"token"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req organisationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	org, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, org)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	org, members, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, organisationResponse{Organisation: org, Members: members})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req organisationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	org, err := h.service.Update(r.Context(), userID, req.Name)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, org)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	if err := h.service.Delete(r.Context(), userID); err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	if err := h.service.Leave(r.Context(), userID); err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	inv, token, err := h.service.Invite(r.Context(), userID, req.Email, req.Role)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, inviteResponse{Invitation: inv, Token: token})
}

func (h *Handler) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	email, _ := middleware.Email(r.Context())
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	member, err := h.service.AcceptInvite(r.Context(), chi.URLParam(r, "invitationID"), req.Token, userID, email)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, member)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	if err := h.service.RemoveMember(r.Context(), userID, chi.URLParam(r, "userID")); err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.UpdateMemberRole(r.Context(), userID, chi.URLParam(r, "userID"), req.Role); err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
