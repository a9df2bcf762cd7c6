package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// CreateIdeaRequest is the body of POST /ideas.
type CreateIdeaRequest struct {
	Title      string              `json:"title"`
	Summary    string              `json:"summary"`
	Status     string              `json:"status,omitempty"`
	Priority   string              `json:"priority,omitempty"`
	Tags       []string            `json:"tags,omitempty"`
	AssigneeID string              `json:"assignee_id,omitempty"`
	TargetDate *openapi_types.Date `json:"target_date,omitempty"`
	Notes      []string            `json:"notes,omitempty"`
}

// UpdateIdeaRequest is the body of PATCH /ideas/{ideaId}. Absent fields are
// left unchanged.
type UpdateIdeaRequest struct {
	Title      *string             `json:"title,omitempty"`
	Summary    *string             `json:"summary,omitempty"`
	Status     *string             `json:"status,omitempty"`
	Priority   *string             `json:"priority,omitempty"`
	Tags       *[]string           `json:"tags,omitempty"`
	OwnerID    *string             `json:"owner_id,omitempty"`
	AssigneeID *string             `json:"assignee_id,omitempty"`
	TargetDate *openapi_types.Date `json:"target_date,omitempty"`
}

// ListIdeas handles GET /ideas.
// Supports ?archived=, ?status=, ?owner_id=, ?tag=, ?q=, ?page_size= and
// ?cursor= (page_size defaults to 20, max 100).
func (s *Server) ListIdeas(w http.ResponseWriter, r *http.Request) {
	params, err := bindListIdeasParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	pageSize, err := domain.NewPageSize(params.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filters := domain.IdeaFilters{
		Archived: deref(params.Archived),
		Status:   domain.Status(deref(params.Status)),
		OwnerID:  deref(params.OwnerID),
		Tag:      deref(params.Tag),
		Q:        deref(params.Q),
	}

	page, err := s.ideas.Page(r.Context(), filters, pageSize, deref(params.Cursor))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateIdea handles POST /ideas.
func (s *Server) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var body CreateIdeaRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.ideas.Create(r.Context(), domain.IdeaInput{
		Title:      body.Title,
		Summary:    body.Summary,
		Status:     domain.Status(body.Status),
		Priority:   domain.Priority(body.Priority),
		Tags:       body.Tags,
		AssigneeID: body.AssigneeID,
		TargetDate: dateToTime(body.TargetDate),
		Notes:      body.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/ideas/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// GetIdea handles GET /ideas/{ideaId}.
func (s *Server) GetIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.ideas.Get(r.Context(), chi.URLParam(r, "ideaId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// UpdateIdea handles PATCH /ideas/{ideaId}.
func (s *Server) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	var body UpdateIdeaRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	patch := domain.IdeaPatch{
		Title:      body.Title,
		Summary:    body.Summary,
		Tags:       body.Tags,
		OwnerID:    body.OwnerID,
		AssigneeID: body.AssigneeID,
		TargetDate: dateToTime(body.TargetDate),
	}
	if body.Status != nil {
		st := domain.Status(*body.Status)
		patch.Status = &st
	}
	if body.Priority != nil {
		p := domain.Priority(*body.Priority)
		patch.Priority = &p
	}

	updated, err := s.ideas.Update(r.Context(), chi.URLParam(r, "ideaId"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ArchiveIdea handles POST /ideas/{ideaId}/archive.
func (s *Server) ArchiveIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.ideas.Archive(r.Context(), chi.URLParam(r, "ideaId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// RestoreIdea handles POST /ideas/{ideaId}/restore.
func (s *Server) RestoreIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.ideas.Restore(r.Context(), chi.URLParam(r, "ideaId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// DeleteIdea handles DELETE /ideas/{ideaId}. Notes go with it.
func (s *Server) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := s.ideas.Delete(r.Context(), chi.URLParam(r, "ideaId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dateToTime converts an optional calendar date to midnight UTC.
func dateToTime(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
