package repo

import (
	"context"
	"fmt"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// NoteRepo defines the persistence operations for an idea's notes.
type NoteRepo interface {
	// List returns every note of the idea, newest first.
	List(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error)

	// Create adds a note authored by in.AuthorID. createdAt comes from the
	// store clock.
	Create(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error)

	// UpdateBody replaces the body of a note.
	// Returns domain.ErrNotFound if the note does not exist.
	UpdateBody(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error)

	// Delete physically removes a note. Notes have no archive state.
	Delete(ctx context.Context, ideaID, noteID string) error
}

type docNoteRepo struct {
	store docstore.Store
}

// NewNoteRepo constructs a NoteRepo backed by store.
func NewNoteRepo(store docstore.Store) NoteRepo {
	return &docNoteRepo{store: store}
}

func (r *docNoteRepo) List(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error) {
	if !validID(ideaID) {
		return nil, fmt.Errorf("repo.NoteRepo.List: %w", domain.ErrNotFound)
	}
	snaps, err := r.store.Query(ctx, notesQuery(ideaID))
	if err != nil {
		return nil, storeErr("repo.NoteRepo.List", err)
	}

	notes := make([]domain.ProductIdeaNote, 0, len(snaps))
	for _, s := range snaps {
		notes = append(notes, NormalizeNote(ideaID, s.ID, s.Fields))
	}
	return notes, nil
}

func (r *docNoteRepo) Create(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error) {
	if !validID(ideaID) {
		return domain.ProductIdeaNote{}, fmt.Errorf("repo.NoteRepo.Create: %w", domain.ErrNotFound)
	}
	snap, err := r.store.Create(ctx, notesCollection(ideaID), docstore.Fields{
		"body":      in.Body,
		"authorId":  in.AuthorID,
		"createdAt": docstore.ServerTimestamp,
	})
	if err != nil {
		return domain.ProductIdeaNote{}, storeErr("repo.NoteRepo.Create", err)
	}
	return NormalizeNote(ideaID, snap.ID, snap.Fields), nil
}

func (r *docNoteRepo) UpdateBody(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error) {
	if !validID(ideaID) || !validID(noteID) {
		return domain.ProductIdeaNote{}, fmt.Errorf("repo.NoteRepo.UpdateBody: %w", domain.ErrNotFound)
	}
	snap, err := r.store.Update(ctx, docstore.DocPath(notesCollection(ideaID), noteID), docstore.Fields{"body": body})
	if err != nil {
		return domain.ProductIdeaNote{}, storeErr("repo.NoteRepo.UpdateBody", err)
	}
	return NormalizeNote(ideaID, snap.ID, snap.Fields), nil
}

func (r *docNoteRepo) Delete(ctx context.Context, ideaID, noteID string) error {
	if !validID(ideaID) || !validID(noteID) {
		return fmt.Errorf("repo.NoteRepo.Delete: %w", domain.ErrNotFound)
	}
	if err := r.store.Delete(ctx, docstore.DocPath(notesCollection(ideaID), noteID)); err != nil {
		return storeErr("repo.NoteRepo.Delete", err)
	}
	return nil
}
