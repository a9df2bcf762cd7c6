package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/product-ideas/backend/internal/auth"
	"github.com/pkordes/product-ideas/backend/internal/middleware"
)

func serveLogged(t *testing.T, status int, ctx context.Context) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := middleware.NewSlogLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ideas", nil).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSlogLogger_LogsRequestFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "test-req-id")
	ctx = auth.WithPrincipal(ctx, auth.Principal{UID: "u1"})

	entry := serveLogged(t, http.StatusOK, ctx)

	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ideas", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.Equal(t, "test-req-id", entry["request_id"])
	assert.Equal(t, "u1", entry["uid"])
	assert.NotNil(t, entry["duration_ms"])
}

func TestSlogLogger_AnonymousAndServerError(t *testing.T) {
	entry := serveLogged(t, http.StatusServiceUnavailable, context.Background())

	assert.Equal(t, "ERROR", entry["level"])
	assert.NotContains(t, entry, "uid")
}
