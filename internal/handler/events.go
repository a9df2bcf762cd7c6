package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// keepAliveInterval spaces the comment lines that stop proxies from closing
// an idle event stream.
const keepAliveInterval = 15 * time.Second

// StreamIdeaEvents handles GET /ideas/{ideaId}/events as a Server-Sent Events
// stream. The idea is read first so the caller's read access is checked
// before anything is streamed; each event names what changed and clients
// re-fetch through the API.
func (s *Server) StreamIdeaEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ideaID := chi.URLParam(r, "ideaId")
	if _, err := s.ideas.Get(ctx, ideaID); err != nil {
		writeError(w, r, err)
		return
	}

	ch, err := s.feed.Subscribe(ctx, ideaID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	// The server-wide write timeout would cut the stream off.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				slog.WarnContext(ctx, "encode event", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}
