// Package repo contains all data access logic for the Product Ideas API.
// It speaks to a docstore.Store: it turns domain values into documents and
// back (normalize.go), filters into store queries (query.go) and store
// results into cursor-paginated pages (cursor.go). No business logic lives
// here.
package repo

import (
	"context"
	"fmt"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// IdeaRepo defines the persistence operations for ProductIdeas.
// The service layer depends on this interface, not the docstore
// implementation, which allows the service to be unit-tested with a mock.
type IdeaRepo interface {
	// Create stores a new idea. The input must already be validated and
	// defaulted; timestamps come from the store clock.
	Create(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error)

	// Get retrieves a single idea.
	// Returns domain.ErrNotFound if no idea with that ID exists.
	Get(ctx context.Context, id string) (domain.ProductIdea, error)

	// Page returns one page of ideas matching filters, starting after
	// cursor (empty for the first page). NextCursor is set only when a
	// further page exists.
	Page(ctx context.Context, filters domain.IdeaFilters, pageSize int, cursor string) (domain.IdeaPage, error)

	// Update applies patch and refreshes updatedAt.
	Update(ctx context.Context, id string, patch domain.IdeaPatch) (domain.ProductIdea, error)

	// SetArchived sets archivedAt to the store clock, or clears it.
	SetArchived(ctx context.Context, id string, archived bool) (domain.ProductIdea, error)

	// Delete removes the idea document only. Notes are the caller's concern.
	Delete(ctx context.Context, id string) error
}

// docIdeaRepo is the docstore implementation of IdeaRepo.
type docIdeaRepo struct {
	store docstore.Store
}

// NewIdeaRepo constructs an IdeaRepo backed by store.
func NewIdeaRepo(store docstore.Store) IdeaRepo {
	return &docIdeaRepo{store: store}
}

func (r *docIdeaRepo) Create(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error) {
	tags := domain.NormalizeTags(in.Tags)
	fields := docstore.Fields{
		"title":      in.Title,
		"titleLower": domain.TitleLower(in.Title),
		"summary":    in.Summary,
		"status":     string(in.Status),
		"priority":   string(in.Priority),
		"tags":       tags,
		"ownerId":    in.OwnerID,
		"createdAt":  docstore.ServerTimestamp,
		"updatedAt":  docstore.ServerTimestamp,
		"archivedAt": nil,
	}
	if in.AssigneeID != "" {
		fields["assigneeId"] = in.AssigneeID
	}
	if in.TargetDate != nil {
		fields["targetDate"] = *in.TargetDate
	}

	snap, err := r.store.Create(ctx, IdeasCollection, fields)
	if err != nil {
		return domain.ProductIdea{}, storeErr("repo.IdeaRepo.Create", err)
	}
	return NormalizeIdea(snap.ID, snap.Fields), nil
}

func (r *docIdeaRepo) Get(ctx context.Context, id string) (domain.ProductIdea, error) {
	if !validID(id) {
		return domain.ProductIdea{}, fmt.Errorf("repo.IdeaRepo.Get: %w", domain.ErrNotFound)
	}
	snap, err := r.store.Get(ctx, docstore.DocPath(IdeasCollection, id))
	if err != nil {
		return domain.ProductIdea{}, storeErr("repo.IdeaRepo.Get", err)
	}
	return NormalizeIdea(snap.ID, snap.Fields), nil
}

// Page asks the store for pageSize+1 documents: the extra one only proves
// another page exists and is never returned. The next cursor marks the last
// returned document, so a final page that exactly fills pageSize correctly
// gets no cursor.
func (r *docIdeaRepo) Page(ctx context.Context, filters domain.IdeaFilters, pageSize int, cursor string) (domain.IdeaPage, error) {
	if pageSize < 1 {
		return domain.IdeaPage{}, fmt.Errorf("repo.IdeaRepo.Page: %w: page size must be positive", domain.ErrValidation)
	}

	q := BuildIdeaQuery(filters)
	if cursor != "" {
		after, err := decodeCursor(cursor, q)
		if err != nil {
			return domain.IdeaPage{}, fmt.Errorf("repo.IdeaRepo.Page: %w", err)
		}
		q.After = after
	}
	q.Limit = pageSize + 1

	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return domain.IdeaPage{}, storeErr("repo.IdeaRepo.Page", err)
	}

	more := len(snaps) > pageSize
	if more {
		snaps = snaps[:pageSize]
	}

	page := domain.IdeaPage{Items: make([]domain.ProductIdea, 0, len(snaps))}
	for _, s := range snaps {
		page.Items = append(page.Items, NormalizeIdea(s.ID, s.Fields))
	}
	if more {
		next, err := encodeCursor(q, snaps[len(snaps)-1])
		if err != nil {
			return domain.IdeaPage{}, fmt.Errorf("repo.IdeaRepo.Page: %w", err)
		}
		page.NextCursor = next
	}
	return page, nil
}

func (r *docIdeaRepo) Update(ctx context.Context, id string, patch domain.IdeaPatch) (domain.ProductIdea, error) {
	if !validID(id) {
		return domain.ProductIdea{}, fmt.Errorf("repo.IdeaRepo.Update: %w", domain.ErrNotFound)
	}
	fields := patchFields(patch)
	fields["updatedAt"] = docstore.ServerTimestamp

	snap, err := r.store.Update(ctx, docstore.DocPath(IdeasCollection, id), fields)
	if err != nil {
		return domain.ProductIdea{}, storeErr("repo.IdeaRepo.Update", err)
	}
	return NormalizeIdea(snap.ID, snap.Fields), nil
}

func (r *docIdeaRepo) SetArchived(ctx context.Context, id string, archived bool) (domain.ProductIdea, error) {
	if !validID(id) {
		return domain.ProductIdea{}, fmt.Errorf("repo.IdeaRepo.SetArchived: %w", domain.ErrNotFound)
	}
	fields := docstore.Fields{"archivedAt": nil, "updatedAt": docstore.ServerTimestamp}
	if archived {
		fields["archivedAt"] = docstore.ServerTimestamp
	}

	snap, err := r.store.Update(ctx, docstore.DocPath(IdeasCollection, id), fields)
	if err != nil {
		return domain.ProductIdea{}, storeErr("repo.IdeaRepo.SetArchived", err)
	}
	return NormalizeIdea(snap.ID, snap.Fields), nil
}

func (r *docIdeaRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("repo.IdeaRepo.Delete: %w", domain.ErrNotFound)
	}
	if err := r.store.Delete(ctx, docstore.DocPath(IdeasCollection, id)); err != nil {
		return storeErr("repo.IdeaRepo.Delete", err)
	}
	return nil
}

// patchFields maps the set fields of patch to document fields. titleLower
// always travels with title.
func patchFields(p domain.IdeaPatch) docstore.Fields {
	f := docstore.Fields{}
	if p.Title != nil {
		f["title"] = *p.Title
		f["titleLower"] = domain.TitleLower(*p.Title)
	}
	if p.Summary != nil {
		f["summary"] = *p.Summary
	}
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	if p.Priority != nil {
		f["priority"] = string(*p.Priority)
	}
	if p.Tags != nil {
		f["tags"] = domain.NormalizeTags(*p.Tags)
	}
	if p.OwnerID != nil {
		f["ownerId"] = *p.OwnerID
	}
	if p.AssigneeID != nil {
		f["assigneeId"] = *p.AssigneeID
	}
	if p.TargetDate != nil {
		f["targetDate"] = *p.TargetDate
	}
	return f
}
