package subscription

import (
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

// Register mounts the subscription routes; /plans is public, /subscription
// is wrapped in RequireAuth by the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subscription", h.handleGet)
}

// RegisterPublic mounts the unauthenticated plan catalogue.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/plans", h.handlePlans)
}

type subscriptionResponse struct {
	HasSubscription bool       `json:"has_subscription"`
	Effective       *Effective `json:"effective,omitempty"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.Error(w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	eff, found, err := h.service.Effective(r.Context(), userID)
	if err != nil {
		httputil.Error(w, h.logger, err)
		return
	}
	resp := subscriptionResponse{HasSubscription: found}
	if found {
		resp.Effective = &eff
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlans(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]any{"plans": Plans()})
}
