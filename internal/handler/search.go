package handler

import (
	"net/http"

	"github.com/pkordes/product-ideas/backend/internal/search"
)

// SearchIdeas handles GET /search?q=&limit=&owner_id=&include_archived=.
// owner_id only has an effect for admins; everyone else searches their own
// ideas.
func (s *Server) SearchIdeas(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchIdeasParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	res, err := s.searcher.Search(r.Context(), search.Query{
		Text:            params.Q,
		OwnerID:         deref(params.OwnerID),
		IncludeArchived: deref(params.IncludeArchived),
		Limit:           deref(params.Limit),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
