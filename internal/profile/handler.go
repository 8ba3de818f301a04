package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/platform/middleware"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

// Handler exposes the profile resource over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the profile routes; callers wrap them in RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.handleGet)
	r.Post("/profile", h.handleCreate)
	r.Put("/profile", h.handleUpdate)
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, http.StatusCreated, h.service.Create)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, http.StatusOK, h.service.Update)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, okStatus int, op func(ctx context.Context, p Profile) (Profile, error)) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	p, err := op(r.Context(), Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Phone:       req.Phone,
		Company:     req.Company,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
	})
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	httputil.JSON(w, okStatus, p)
}
