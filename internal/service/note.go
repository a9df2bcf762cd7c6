package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/events"
	"github.com/pkordes/product-ideas/backend/internal/repo"
)

// NoteService implements business logic for the notes of an idea.
type NoteService struct {
	notes repo.NoteRepo
	feed  events.Publisher
	now   func() time.Time
}

// NewNoteService constructs a NoteService. A nil feed disables change events.
func NewNoteService(notes repo.NoteRepo, feed events.Publisher) *NoteService {
	if feed == nil {
		feed = events.Nop{}
	}
	return &NoteService{notes: notes, feed: feed, now: time.Now}
}

// List returns the idea's notes, newest first. Always returns a non-nil slice.
func (s *NoteService) List(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error) {
	if _, err := caller(ctx, "service.NoteService.List"); err != nil {
		return nil, err
	}
	notes, err := s.notes.List(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("service.NoteService.List: %w", err)
	}
	if notes == nil {
		notes = []domain.ProductIdeaNote{}
	}
	return notes, nil
}

// Add attaches a note written by the caller.
func (s *NoteService) Add(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error) {
	p, err := caller(ctx, "service.NoteService.Add")
	if err != nil {
		return domain.ProductIdeaNote{}, err
	}
	if err := validateNoteBody(in.Body); err != nil {
		return domain.ProductIdeaNote{}, err
	}
	if in.AuthorID == "" {
		in.AuthorID = p.UID
	}

	note, err := s.notes.Create(ctx, ideaID, in)
	if err != nil {
		return domain.ProductIdeaNote{}, fmt.Errorf("service.NoteService.Add: %w", err)
	}
	s.publish(ctx, events.NoteCreated, note, p.UID)
	return note, nil
}

// Update replaces a note's body. Only the author may do so; the store
// enforces that.
func (s *NoteService) Update(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error) {
	p, err := caller(ctx, "service.NoteService.Update")
	if err != nil {
		return domain.ProductIdeaNote{}, err
	}
	if err := validateNoteBody(body); err != nil {
		return domain.ProductIdeaNote{}, err
	}

	note, err := s.notes.UpdateBody(ctx, ideaID, noteID, body)
	if err != nil {
		return domain.ProductIdeaNote{}, fmt.Errorf("service.NoteService.Update: %w", err)
	}
	s.publish(ctx, events.NoteUpdated, note, p.UID)
	return note, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, ideaID, noteID string) error {
	p, err := caller(ctx, "service.NoteService.Delete")
	if err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, ideaID, noteID); err != nil {
		return fmt.Errorf("service.NoteService.Delete: %w", err)
	}
	s.publish(ctx, events.NoteDeleted, domain.ProductIdeaNote{ID: noteID, IdeaID: ideaID}, p.UID)
	return nil
}

func (s *NoteService) publish(ctx context.Context, kind events.Kind, n domain.ProductIdeaNote, actor string) {
	publish(ctx, s.feed, events.Event{Kind: kind, IdeaID: n.IdeaID, NoteID: n.ID, Actor: actor, At: s.now().UTC()})
}
