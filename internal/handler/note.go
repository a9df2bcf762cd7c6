package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// NoteRequest is the body of POST and PATCH on notes.
type NoteRequest struct {
	Body string `json:"body"`
}

// ListNotes handles GET /ideas/{ideaId}/notes. Newest first.
func (s *Server) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.notes.List(r.Context(), chi.URLParam(r, "ideaId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// CreateNote handles POST /ideas/{ideaId}/notes.
func (s *Server) CreateNote(w http.ResponseWriter, r *http.Request) {
	var body NoteRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	note, err := s.notes.Add(r.Context(), chi.URLParam(r, "ideaId"), domain.NoteInput{Body: body.Body})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /ideas/{ideaId}/notes/{noteId}.
func (s *Server) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var body NoteRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	note, err := s.notes.Update(r.Context(), chi.URLParam(r, "ideaId"), chi.URLParam(r, "noteId"), body.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /ideas/{ideaId}/notes/{noteId}.
func (s *Server) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.Delete(r.Context(), chi.URLParam(r, "ideaId"), chi.URLParam(r, "noteId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
