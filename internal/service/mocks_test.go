package service_test

import (
	"context"
	"sync"

	"github.com/pkordes/product-ideas/backend/internal/auth"
	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/events"
	"github.com/pkordes/product-ideas/backend/internal/repo"
	"github.com/pkordes/product-ideas/backend/internal/search"
)

// ---- mock repos ------------------------------------------------------------

// mockIdeaRepo is a hand-written test double for repo.IdeaRepo.
// A nil function field panics when called, which flags unexpected calls.
type mockIdeaRepo struct {
	create      func(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error)
	get         func(ctx context.Context, id string) (domain.ProductIdea, error)
	page        func(ctx context.Context, f domain.IdeaFilters, size int, cursor string) (domain.IdeaPage, error)
	update      func(ctx context.Context, id string, p domain.IdeaPatch) (domain.ProductIdea, error)
	setArchived func(ctx context.Context, id string, archived bool) (domain.ProductIdea, error)
	delete      func(ctx context.Context, id string) error
}

func (m *mockIdeaRepo) Create(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error) {
	return m.create(ctx, in)
}
func (m *mockIdeaRepo) Get(ctx context.Context, id string) (domain.ProductIdea, error) {
	return m.get(ctx, id)
}
func (m *mockIdeaRepo) Page(ctx context.Context, f domain.IdeaFilters, size int, cursor string) (domain.IdeaPage, error) {
	return m.page(ctx, f, size, cursor)
}
func (m *mockIdeaRepo) Update(ctx context.Context, id string, p domain.IdeaPatch) (domain.ProductIdea, error) {
	return m.update(ctx, id, p)
}
func (m *mockIdeaRepo) SetArchived(ctx context.Context, id string, archived bool) (domain.ProductIdea, error) {
	return m.setArchived(ctx, id, archived)
}
func (m *mockIdeaRepo) Delete(ctx context.Context, id string) error {
	return m.delete(ctx, id)
}

// compile-time check: mockIdeaRepo must satisfy repo.IdeaRepo.
var _ repo.IdeaRepo = (*mockIdeaRepo)(nil)

// mockNoteRepo is a hand-written test double for repo.NoteRepo.
type mockNoteRepo struct {
	list       func(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error)
	create     func(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error)
	updateBody func(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error)
	delete     func(ctx context.Context, ideaID, noteID string) error
}

func (m *mockNoteRepo) List(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error) {
	return m.list(ctx, ideaID)
}
func (m *mockNoteRepo) Create(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error) {
	return m.create(ctx, ideaID, in)
}
func (m *mockNoteRepo) UpdateBody(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error) {
	return m.updateBody(ctx, ideaID, noteID, body)
}
func (m *mockNoteRepo) Delete(ctx context.Context, ideaID, noteID string) error {
	return m.delete(ctx, ideaID, noteID)
}

var _ repo.NoteRepo = (*mockNoteRepo)(nil)

// ---- side-effect recorders -------------------------------------------------

// recordingFeed captures published events.
type recordingFeed struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (f *recordingFeed) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *recordingFeed) kinds() []events.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.Kind, len(f.events))
	for i, e := range f.events {
		out[i] = e.Kind
	}
	return out
}

// recordingIndex captures what would be mirrored into search.
type recordingIndex struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
	err     error
	search  func(ctx context.Context, q search.Query) (search.Result, error)
}

func (x *recordingIndex) IndexIdea(_ context.Context, idea domain.ProductIdea) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexed = append(x.indexed, idea.ID)
	return x.err
}

func (x *recordingIndex) DeleteIdea(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.deleted = append(x.deleted, id)
	return x.err
}

func (x *recordingIndex) Search(ctx context.Context, q search.Query) (search.Result, error) {
	return x.search(ctx, q)
}

var _ search.Index = (*recordingIndex)(nil)

// ---- helpers ---------------------------------------------------------------

func as(uid string) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UID: uid})
}

func asAdmin(uid string) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UID: uid, Admin: true})
}

func ptr[T any](v T) *T { return &v }
