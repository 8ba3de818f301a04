package device

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/platform/middleware"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the device routes; callers wrap them in RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/devices", h.handleList)
	r.Post("/devices", h.handleRegister)
	r.Delete("/devices/{deviceID}", h.handleRemove)
	r.Post("/devices/{deviceID}/heartbeat", h.handleHeartbeat)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	devices, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	d, err := h.service.Register(r.Context(), userID, req.Name, r.UserAgent())
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, d)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	if err := h.service.Remove(r.Context(), userID, chi.URLParam(r, "deviceID")); err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	d, err := h.service.Heartbeat(r.Context(), userID, chi.URLParam(r, "deviceID"))
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, d)
}
