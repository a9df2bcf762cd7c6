package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/events"
	"github.com/pkordes/product-ideas/backend/internal/handler"
	"github.com/pkordes/product-ideas/backend/internal/search"
)

// ---- mocks -----------------------------------------------------------------

// mockIdeaServicer is a test double for handler.IdeaServicer.
// Set only the method fields your test needs.
type mockIdeaServicer struct {
	get     func(ctx context.Context, id string) (domain.ProductIdea, error)
	page    func(ctx context.Context, f domain.IdeaFilters, size int, cursor string) (domain.IdeaPage, error)
	create  func(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error)
	update  func(ctx context.Context, id string, p domain.IdeaPatch) (domain.ProductIdea, error)
	archive func(ctx context.Context, id string) (domain.ProductIdea, error)
	restore func(ctx context.Context, id string) (domain.ProductIdea, error)
	delete  func(ctx context.Context, id string) error
}

func (m *mockIdeaServicer) Get(ctx context.Context, id string) (domain.ProductIdea, error) {
	return m.get(ctx, id)
}
func (m *mockIdeaServicer) Page(ctx context.Context, f domain.IdeaFilters, size int, cursor string) (domain.IdeaPage, error) {
	return m.page(ctx, f, size, cursor)
}
func (m *mockIdeaServicer) Create(ctx context.Context, in domain.IdeaInput) (domain.ProductIdea, error) {
	return m.create(ctx, in)
}
func (m *mockIdeaServicer) Update(ctx context.Context, id string, p domain.IdeaPatch) (domain.ProductIdea, error) {
	return m.update(ctx, id, p)
}
func (m *mockIdeaServicer) Archive(ctx context.Context, id string) (domain.ProductIdea, error) {
	return m.archive(ctx, id)
}
func (m *mockIdeaServicer) Restore(ctx context.Context, id string) (domain.ProductIdea, error) {
	return m.restore(ctx, id)
}
func (m *mockIdeaServicer) Delete(ctx context.Context, id string) error {
	return m.delete(ctx, id)
}

// compile-time check: mockIdeaServicer must satisfy handler.IdeaServicer.
var _ handler.IdeaServicer = (*mockIdeaServicer)(nil)

type mockNoteServicer struct {
	list   func(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error)
	add    func(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error)
	update func(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error)
	delete func(ctx context.Context, ideaID, noteID string) error
}

func (m *mockNoteServicer) List(ctx context.Context, ideaID string) ([]domain.ProductIdeaNote, error) {
	return m.list(ctx, ideaID)
}
func (m *mockNoteServicer) Add(ctx context.Context, ideaID string, in domain.NoteInput) (domain.ProductIdeaNote, error) {
	return m.add(ctx, ideaID, in)
}
func (m *mockNoteServicer) Update(ctx context.Context, ideaID, noteID, body string) (domain.ProductIdeaNote, error) {
	return m.update(ctx, ideaID, noteID, body)
}
func (m *mockNoteServicer) Delete(ctx context.Context, ideaID, noteID string) error {
	return m.delete(ctx, ideaID, noteID)
}

var _ handler.NoteServicer = (*mockNoteServicer)(nil)

type mockSearcher struct {
	search func(ctx context.Context, q search.Query) (search.Result, error)
}

func (m *mockSearcher) Search(ctx context.Context, q search.Query) (search.Result, error) {
	return m.search(ctx, q)
}

// stubFeed replays a fixed list of events and then closes the stream.
type stubFeed struct {
	events []events.Event
	gotID  string
}

func (f *stubFeed) Subscribe(_ context.Context, ideaID string) (<-chan events.Event, error) {
	f.gotID = ideaID
	ch := make(chan events.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into its chi router, the
// same way main.go does.
func newHTTPHandler(ideas handler.IdeaServicer, notes handler.NoteServicer) http.Handler {
	return handler.NewServer(ideas, notes, nil, nil).Routes()
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, b *bytes.Buffer) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(b).Decode(&resp))
	return resp.Error
}
