// Package httptransport is the thin HTTP layer. It delegates to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beacon/internal/consent"
	"beacon/internal/device"
	"beacon/internal/organisation"
	"beacon/internal/platform/metrics"
	"beacon/internal/platform/middleware"
	"beacon/internal/profile"
	"beacon/internal/session"
	"beacon/internal/subscription"
	"beacon/internal/tracking"
	"beacon/pkg/platform/httputil"
)

// Deps collects everything the router serves. Handlers for the account
// resources register their own routes; session, consent, and tracking are
// thin enough to live here.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Clock    func() time.Time
	Sessions *session.Manager
	Location *session.MemoryLocation
	Consents *consent.Manager
	Gate     *tracking.Gate

	Profiles      *profile.Handler
	Devices       *device.Handler
	Organisations *organisation.Handler
	Subscriptions *subscription.Handler
}

// NewRouter wires all endpoints. Account resources sit behind bearer-token
// auth; session, consent, and tracking are reachable before sign-in because
// the consent banner and the login flow run for anonymous visitors too.
func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		logger:   deps.Logger,
		sessions: deps.Sessions,
		location: deps.Location,
		consents: deps.Consents,
		gate:     deps.Gate,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(middleware.Observe(deps.Metrics))
	}

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/session", h.handleSessionState)
	r.Get("/session/authorize-url", h.handleAuthorizeURL)
	r.Get("/session/registration-url", h.handleRegistrationURL)
	r.Get("/session/signout-url", h.handleSignOutURL)
	r.Post("/session/callback", h.handleCallback)
	r.Post("/session/signout", h.handleSignOut)

	r.Get("/consent", h.handleConsentState)
	r.Post("/consent/accept", h.handleConsentAccept)
	r.Post("/consent/decline", h.handleConsentDecline)
	r.Put("/consent", h.handleConsentCustom)
	r.Delete("/consent", h.handleConsentReset)

	r.Post("/track", h.handleTrack)

	deps.Subscriptions.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Logger, deps.Clock))
		deps.Profiles.Register(r)
		deps.Devices.Register(r)
		deps.Organisations.Register(r)
		deps.Subscriptions.Register(r)
	})

	return r
}

// Handler is the thin HTTP layer over the session, consent, and tracking
// services.
type Handler struct {
	logger   *slog.Logger
	sessions *session.Manager
	location *session.MemoryLocation
	consents *consent.Manager
	gate     *tracking.Gate
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
