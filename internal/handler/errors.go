package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// retryAfterSeconds is sent with every 503 so clients back off instead of
// hammering a store that is still unavailable.
const retryAfterSeconds = "5"

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope {"error": {...}} all error responses use.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorBody(code, message string, details any) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}}
}

// writeError maps a service error onto a status code and error envelope.
// Unknown errors are logged and answered with a generic 500 so internals
// never leak to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *domain.IndexMissingError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", unwrapMessage(err), nil))
	case errors.Is(err, domain.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="product-ideas"`)
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthenticated", "authentication required", nil))
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorBody("permission_denied", "permission denied", nil))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "resource not found", nil))
	case errors.Is(err, domain.ErrInvalidCursor):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_cursor", "cursor is malformed or belongs to a different query", nil))
	case errors.As(err, &missing):
		slog.WarnContext(r.Context(), "query needs a composite index", "index", missing.Error())
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("index_missing", missing.Error(), missing))
	case errors.Is(err, domain.ErrUnavailable):
		slog.WarnContext(r.Context(), "store unavailable", "err", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("unavailable", "service temporarily unavailable", nil))
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody("timeout", "request timed out", nil))
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error", nil))
	}
}

// badRequest answers a request rejected before reaching the service layer
// (malformed body, unparseable parameter).
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody("bad_request", message, nil))
}

// unwrapMessage extracts the human-readable part from a wrapped validation
// error, e.g. "service.X: validation error: title is required" becomes
// "title is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok {
		return after
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}

// decodeJSON reads a JSON body into dst. It writes the error response itself
// and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge,
			errorBody("payload_too_large", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil))
		return false
	}
	badRequest(w, "invalid JSON body: "+err.Error())
	return false
}
