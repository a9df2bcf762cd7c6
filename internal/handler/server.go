// Package handler implements the HTTP handlers for the Product Ideas API.
// All handlers are methods on Server. Routes mounts them on a chi router;
// handlers only translate between HTTP and the service layer.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/events"
	"github.com/pkordes/product-ideas/backend/internal/search"
)

// IdeaServicer defines the business operations the idea handlers depend on.
// It lives in the consumer package so handler tests can inject a mock.
type IdeaServicer interface {
	Get(ctx context.Context, id string) (domain.ProductIdea, error)
	Page(ctx context.Context, filters domain.IdeaFilters, pageSize int, cursor string) (domain.IdeaPage, error)
	Create(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error)
	Update(ctx context.Context, id string, patch domain.IdeaPatch) (domain.ProductIdea, error)
	Archive(ctx context.Context, id string) (domain.ProductIdea, error)
	Restore(ctx context.Context, id string) (domain.ProductIdea, error)
	Delete(ctx context.Context, id string) error
}

// NoteServicer defines the operations the note handlers depend on.
type NoteServicer interface {
	List(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error)
	Add(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error)
	Update(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error)
	Delete(ctx context.Context, ideaID, noteID string) error
}

// Searcher runs full-text queries.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Result, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	ideas    IdeaServicer
	notes    NoteServicer
	searcher Searcher
	feed     events.Subscriber
}

// NewServer constructs the Server. A nil feed serves event streams that
// never deliver anything.
func NewServer(ideas IdeaServicer, notes NoteServicer, searcher Searcher, feed events.Subscriber) *Server {
	if feed == nil {
		feed = events.Nop{}
	}
	return &Server{ideas: ideas, notes: notes, searcher: searcher, feed: feed}
}

// Routes returns a router with every API endpoint. Authentication, CORS and
// logging middleware are applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/search", s.SearchIdeas)

	r.Route("/ideas", func(r chi.Router) {
		r.Get("/", s.ListIdeas)
		r.Post("/", s.CreateIdea)

		r.Route("/{ideaId}", func(r chi.Router) {
			r.Get("/", s.GetIdea)
			r.Patch("/", s.UpdateIdea)
			r.Delete("/", s.DeleteIdea)
			r.Post("/archive", s.ArchiveIdea)
			r.Post("/restore", s.RestoreIdea)
			r.Get("/events", s.StreamIdeaEvents)

			r.Get("/notes", s.ListNotes)
			r.Post("/notes", s.CreateNote)
			r.Patch("/notes/{noteId}", s.UpdateNote)
			r.Delete("/notes/{noteId}", s.DeleteNote)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "no such route", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed", nil))
	})
	return r
}
