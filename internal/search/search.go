// Package search mirrors ideas into a full-text index. The document store
// remains the source of truth: the index is fed after successful writes and
// may lag or miss updates while the search backend is down.
package search

import (
	"context"
	"fmt"

	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// Record is the data indexed for an idea.
type Record struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags"`
	OwnerID   string   `json:"ownerId"`
	Archived  bool     `json:"archived"`
	UpdatedAt int64    `json:"updatedAt"`
}

// RecordOf converts an idea into its index record.
func RecordOf(i domain.ProductIdea) Record {
	return Record{
		ID:        i.ID,
		Title:     i.Title,
		Summary:   i.Summary,
		Status:    string(i.Status),
		Tags:      i.Tags,
		OwnerID:   i.OwnerID,
		Archived:  i.Archived(),
		UpdatedAt: i.UpdatedAt.Unix(),
	}
}

// Query describes a search request.
type Query struct {
	Text string
	// OwnerID restricts hits to one owner. Empty means every owner, which
	// only admins may ask for.
	OwnerID         string
	IncludeArchived bool
	Limit           int
}

// Hit is a single search result.
type Hit struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Status   string `json:"status"`
	Archived bool   `json:"archived"`
}

// Result is the envelope returned by the search endpoint.
type Result struct {
	Hits  []Hit  `json:"hits"`
	Total int    `json:"total"`
	Query string `json:"query"`
}

// Index is implemented by search backends.
type Index interface {
	IndexIdea(ctx context.Context, idea domain.ProductIdea) error
	DeleteIdea(ctx context.Context, id string) error
	Search(ctx context.Context, q Query) (Result, error)
}

// Nop is used when no search backend is configured: writes are dropped and
// searches report the backend as unavailable.
type Nop struct{}

var _ Index = Nop{}

func (Nop) IndexIdea(context.Context, domain.ProductIdea) error { return nil }
func (Nop) DeleteIdea(context.Context, string) error            { return nil }

func (Nop) Search(context.Context, Query) (Result, error) {
	return Result{}, fmt.Errorf("search: %w: no search backend configured", domain.ErrUnavailable)
}
