// Package httputil centralizes JSON response shaping and the mapping from
// domain error codes to HTTP status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "beacon/pkg/domain-errors"
)

type errorBody struct {
	Error string       `json:"error"`
	Code  dErrors.Code `json:"code"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error translates a domain error into an HTTP error response. Unexpected
// errors surface as 500 with a generic message; the detail goes to the log.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := StatusForCode(code)

	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		message = de.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	JSON(w, status, errorBody{Error: message, Code: code})
}

// StatusForCode maps a domain error code to its HTTP status.
func StatusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeMissingConsent:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
