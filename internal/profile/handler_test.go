package profile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/platform/middleware"
	"beacon/internal/profile"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := profile.NewHandler(newService(profile.NewMemoryStore()), logger)
	r := chi.NewRouter()
	handler.Register(r)
	return r
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, "sub-1")
	return req.WithContext(ctx)
}

func TestHandleCreateAndGet(t *testing.T) {
	r := newTestRouter(t)

	body, err := json.Marshal(map[string]string{"display_name": "Ada", "company": "Analytical Engines Ltd"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/profile", body))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got profile.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "sub-1", got.UserID)
	assert.Equal(t, "Ada", got.DisplayName)
}

func TestHandleGet_NotFound(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreate_Conflict(t *testing.T) {
	r := newTestRouter(t)
	body, err := json.Marshal(map[string]string{"display_name": "Ada"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/profile", body))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/profile", body))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleCreate_InvalidBody(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/profile", []byte("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Unauthenticated(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
