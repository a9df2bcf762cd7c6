package middleware

import (
	"encoding/json"
	"net/http"
)

// NewMaxBodySizeHandler limits request bodies to limit bytes. A request whose
// Content-Length already exceeds the limit is answered with 413 without
// reading the body; otherwise the body is wrapped in http.MaxBytesReader so
// a streamed body fails inside the handler's decoder once it grows too large.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "payload_too_large", "message": "request body too large"},
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
