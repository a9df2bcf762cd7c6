package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/search"
)

// maxSearchLimit caps full-text result counts like MaxPageSize caps pages.
const maxSearchLimit = domain.MaxPageSize

// SearchService answers full-text queries from the search index. Hits are
// scoped the same way listings are: non-admin callers only see their own
// ideas.
type SearchService struct {
	index search.Index
}

// NewSearchService constructs a SearchService. A nil index makes every search
// fail with domain.ErrUnavailable.
func NewSearchService(index search.Index) *SearchService {
	if index == nil {
		index = search.Nop{}
	}
	return &SearchService{index: index}
}

// Search runs q. A blank query text is a validation error.
func (s *SearchService) Search(ctx context.Context, q search.Query) (search.Result, error) {
	p, err := caller(ctx, "service.SearchService.Search")
	if err != nil {
		return search.Result{}, err
	}
	q.Text = strings.TrimSpace(q.Text)
	q.OwnerID = strings.TrimSpace(q.OwnerID)
	if q.Text == "" {
		return search.Result{}, fmt.Errorf("%w: q is required", domain.ErrValidation)
	}
	if !p.Admin {
		q.OwnerID = p.UID
	}
	switch {
	case q.Limit <= 0:
		q.Limit = domain.DefaultPageSize
	case q.Limit > maxSearchLimit:
		q.Limit = maxSearchLimit
	}

	res, err := s.index.Search(ctx, q)
	if err != nil {
		return search.Result{}, fmt.Errorf("service.SearchService.Search: %w", err)
	}
	if res.Hits == nil {
		res.Hits = []search.Hit{}
	}
	return res, nil
}
