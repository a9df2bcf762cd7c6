// Package service contains the business logic for the Product Ideas API.
// Services validate inputs, apply defaults, and orchestrate repo calls.
// Authorization itself is enforced by the store; services only make sure the
// queries they issue are shaped so that the rules can allow them.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/events"
	"github.com/pkordes/product-ideas/backend/internal/repo"
	"github.com/pkordes/product-ideas/backend/internal/search"
)

// sideEffectTimeout bounds publishing and indexing after a write.
const sideEffectTimeout = 2 * time.Second

// IdeaService implements business logic for ProductIdea operations.
// It holds the notes repo too because creating an idea may attach initial
// notes and deleting one removes its notes first.
type IdeaService struct {
	ideas repo.IdeaRepo
	notes repo.NoteRepo
	feed  events.Publisher
	index search.Index
	now   func() time.Time
}

// NewIdeaService constructs an IdeaService. A nil feed or index disables
// change events or search mirroring.
func NewIdeaService(ideas repo.IdeaRepo, notes repo.NoteRepo, feed events.Publisher, index search.Index) *IdeaService {
	if feed == nil {
		feed = events.Nop{}
	}
	if index == nil {
		index = search.Nop{}
	}
	return &IdeaService{ideas: ideas, notes: notes, feed: feed, index: index, now: time.Now}
}

// Get returns a single idea.
// Returns domain.ErrNotFound if it does not exist and
// domain.ErrPermissionDenied if the caller may not read it.
func (s *IdeaService) Get(ctx context.Context, id string) (domain.ProductIdea, error) {
	if _, err := caller(ctx, "service.IdeaService.Get"); err != nil {
		return domain.ProductIdea{}, err
	}
	idea, err := s.ideas.Get(ctx, id)
	if err != nil {
		return domain.ProductIdea{}, fmt.Errorf("service.IdeaService.Get: %w", err)
	}
	return idea, nil
}

// Page returns one page of ideas. Callers without the admin claim only ever
// see their own ideas, so an empty OwnerID is filled in with the caller; a
// query over everyone's ideas would be denied as a whole.
func (s *IdeaService) Page(ctx context.Context, filters domain.IdeaFilters, pageSize int, cursor string) (domain.IdeaPage, error) {
	p, err := caller(ctx, "service.IdeaService.Page")
	if err != nil {
		return domain.IdeaPage{}, err
	}
	filters = filters.Normalized()
	if !p.Admin && filters.OwnerID == "" {
		filters.OwnerID = p.UID
	}

	page, err := s.ideas.Page(ctx, filters, pageSize, cursor)
	if err != nil {
		return domain.IdeaPage{}, fmt.Errorf("service.IdeaService.Page: %w", err)
	}
	if page.Items == nil {
		page.Items = []domain.ProductIdea{}
	}
	return page, nil
}

// Create validates and persists a new idea owned by the caller, then adds
// any initial notes concurrently. Status defaults to draft and priority to
// medium. If a note fails, the idea stays and the error is returned.
func (s *IdeaService) Create(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error) {
	p, err := caller(ctx, "service.IdeaService.Create")
	if err != nil {
		return domain.ProductIdea{}, err
	}
	if err := validateIdeaInput(in); err != nil {
		return domain.ProductIdea{}, err
	}
	if in.Status == "" {
		in.Status = domain.StatusDraft
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if in.OwnerID == "" {
		in.OwnerID = p.UID
	}

	idea, err := s.ideas.Create(ctx, in)
	if err != nil {
		return domain.ProductIdea{}, fmt.Errorf("service.IdeaService.Create: %w", err)
	}
	s.publish(ctx, events.IdeaCreated, idea.ID, "", p.UID)
	s.reindex(ctx, idea)

	if len(in.Notes) > 0 {
		created := make([]domain.ProductIdeaNote, len(in.Notes))
		g, gctx := errgroup.WithContext(ctx)
		for i, body := range in.Notes {
			g.Go(func() error {
				n, err := s.notes.Create(gctx, idea.ID, domain.NoteInput{Body: body, AuthorID: p.UID})
				if err != nil {
					return err
				}
				created[i] = n
				return nil
			})
		}
		err := g.Wait()
		for _, n := range created {
			if n.ID != "" {
				s.publish(ctx, events.NoteCreated, idea.ID, n.ID, p.UID)
			}
		}
		if err != nil {
			return domain.ProductIdea{}, fmt.Errorf("service.IdeaService.Create: initial notes for %s: %w", idea.ID, err)
		}
	}
	return idea, nil
}

// Update validates and applies a partial update.
func (s *IdeaService) Update(ctx context.Context, id string, patch domain.IdeaPatch) (domain.ProductIdea, error) {
	p, err := caller(ctx, "service.IdeaService.Update")
	if err != nil {
		return domain.ProductIdea{}, err
	}
	if err := validateIdeaPatch(patch); err != nil {
		return domain.ProductIdea{}, err
	}

	idea, err := s.ideas.Update(ctx, id, patch)
	if err != nil {
		return domain.ProductIdea{}, fmt.Errorf("service.IdeaService.Update: %w", err)
	}
	s.publish(ctx, events.IdeaUpdated, idea.ID, "", p.UID)
	s.reindex(ctx, idea)
	return idea, nil
}

// Archive soft-deletes an idea. Archiving an archived idea changes nothing.
func (s *IdeaService) Archive(ctx context.Context, id string) (domain.ProductIdea, error) {
	return s.setArchived(ctx, "service.IdeaService.Archive", id, true)
}

// Restore clears an idea's archive mark. Restoring an active idea changes
// nothing.
func (s *IdeaService) Restore(ctx context.Context, id string) (domain.ProductIdea, error) {
	return s.setArchived(ctx, "service.IdeaService.Restore", id, false)
}

func (s *IdeaService) setArchived(ctx context.Context, op, id string, archived bool) (domain.ProductIdea, error) {
	p, err := caller(ctx, op)
	if err != nil {
		return domain.ProductIdea{}, err
	}
	current, err := s.ideas.Get(ctx, id)
	if err != nil {
		return domain.ProductIdea{}, fmt.Errorf("%s: %w", op, err)
	}
	if current.Archived() == archived {
		return current, nil
	}

	idea, err := s.ideas.SetArchived(ctx, id, archived)
	if err != nil {
		return domain.ProductIdea{}, fmt.Errorf("%s: %w", op, err)
	}
	kind := events.IdeaRestored
	if archived {
		kind = events.IdeaArchived
	}
	s.publish(ctx, kind, idea.ID, "", p.UID)
	s.reindex(ctx, idea)
	return idea, nil
}

// Delete removes an idea and all of its notes, notes first. The store only
// lets authors delete notes, so the whole cascade is checked up front: when
// the caller does not own the idea or did not write every note, nothing is
// deleted and domain.ErrPermissionDenied is returned.
func (s *IdeaService) Delete(ctx context.Context, id string) error {
	p, err := caller(ctx, "service.IdeaService.Delete")
	if err != nil {
		return err
	}
	idea, err := s.ideas.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("service.IdeaService.Delete: %w", err)
	}
	if idea.OwnerID != p.UID {
		return fmt.Errorf("service.IdeaService.Delete: %w: only the owner may delete an idea", domain.ErrPermissionDenied)
	}

	notes, err := s.notes.List(ctx, id)
	if err != nil {
		return fmt.Errorf("service.IdeaService.Delete: list notes: %w", err)
	}
	for _, n := range notes {
		if n.AuthorID != p.UID {
			return fmt.Errorf("service.IdeaService.Delete: %w: note %s belongs to another author", domain.ErrPermissionDenied, n.ID)
		}
	}
	for _, n := range notes {
		if err := s.notes.Delete(ctx, id, n.ID); err != nil {
			return fmt.Errorf("service.IdeaService.Delete: note %s: %w", n.ID, err)
		}
	}

	if err := s.ideas.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.IdeaService.Delete: %w", err)
	}
	s.publish(ctx, events.IdeaDeleted, id, "", p.UID)
	s.unindex(ctx, id)
	return nil
}

// publish sends a change event. Failures are logged, never returned: the
// write already succeeded.
func (s *IdeaService) publish(ctx context.Context, kind events.Kind, ideaID, noteID, actor string) {
	publish(ctx, s.feed, events.Event{Kind: kind, IdeaID: ideaID, NoteID: noteID, Actor: actor, At: s.now().UTC()})
}

func (s *IdeaService) reindex(ctx context.Context, idea domain.ProductIdea) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.index.IndexIdea(ctx, idea); err != nil {
		slog.WarnContext(ctx, "search indexing failed", "idea_id", idea.ID, "err", err)
	}
}

func (s *IdeaService) unindex(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.index.DeleteIdea(ctx, id); err != nil {
		slog.WarnContext(ctx, "search delete failed", "idea_id", id, "err", err)
	}
}

func publish(ctx context.Context, feed events.Publisher, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := feed.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "change event not published", "kind", e.Kind, "idea_id", e.IdeaID, "err", err)
	}
}
