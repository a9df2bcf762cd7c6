package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/product-ideas/backend/internal/auth"
	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/docstore/memstore"
)

// ---- helpers ---------------------------------------------------------------

// tickingClock returns a clock that advances one second per call, so every
// write gets a distinct timestamp.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("doc%03d", n)
	}
}

func newStore(rules docstore.Rules, opts ...memstore.Option) *memstore.Store {
	opts = append([]memstore.Option{memstore.WithClock(tickingClock()), memstore.WithIDGenerator(sequentialIDs())}, opts...)
	return memstore.New(rules, opts...)
}

func asUser(uid string) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UID: uid})
}

// ownerOnly allows access to documents whose "owner" field is the caller.
var ownerOnly = docstore.RulesFunc(func(req docstore.Request) error {
	if req.Auth == nil {
		return docstore.ErrUnauthenticated
	}
	doc := req.Resource
	if req.Method == docstore.MethodCreate {
		doc = req.Incoming
	}
	if doc == nil {
		return nil
	}
	if doc["owner"] != req.Auth.UID {
		return errors.New("not the owner")
	}
	return nil
})

// ---- CRUD ------------------------------------------------------------------

func TestStore_CreateGet(t *testing.T) {
	s := newStore(docstore.AllowAll)
	ctx := context.Background()

	created, err := s.Create(ctx, "items", docstore.Fields{"name": "a", "createdAt": docstore.ServerTimestamp})
	require.NoError(t, err)

	assert.Equal(t, "doc001", created.ID)
	assert.Equal(t, "items/doc001", created.Path)
	assert.IsType(t, time.Time{}, created.Fields["createdAt"])

	got, err := s.Get(ctx, created.Path)
	require.NoError(t, err)
	assert.Equal(t, created.Fields, got.Fields)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := newStore(docstore.AllowAll)

	_, err := s.Get(context.Background(), "items/missing")

	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_Update_MergesAndRefreshesUpdateTime(t *testing.T) {
	s := newStore(docstore.AllowAll)
	ctx := context.Background()
	created, err := s.Create(ctx, "items", docstore.Fields{"name": "a", "size": 1})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.Path, docstore.Fields{"size": 2})

	require.NoError(t, err)
	assert.Equal(t, "a", updated.Fields["name"])
	assert.Equal(t, float64(2), updated.Fields["size"])
	assert.True(t, updated.UpdateTime.After(created.UpdateTime))
	assert.Equal(t, created.CreateTime, updated.CreateTime)
}

func TestStore_Update_NotFound(t *testing.T) {
	s := newStore(docstore.AllowAll)

	_, err := s.Update(context.Background(), "items/missing", docstore.Fields{"a": 1})

	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := newStore(docstore.AllowAll)
	ctx := context.Background()
	created, err := s.Create(ctx, "items", docstore.Fields{"name": "a"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.Path))

	_, err = s.Get(ctx, created.Path)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, created.Path), docstore.ErrNotFound)
}

func TestStore_Delete_LeavesSubcollection(t *testing.T) {
	s := newStore(docstore.AllowAll)
	ctx := context.Background()
	parent, err := s.Create(ctx, "items", docstore.Fields{})
	require.NoError(t, err)
	_, err = s.Create(ctx, parent.Path+"/notes", docstore.Fields{"body": "x"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, parent.Path))

	notes, err := s.Query(ctx, docstore.Query{Collection: parent.Path + "/notes"})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestStore_CanceledContext(t *testing.T) {
	s := newStore(docstore.AllowAll)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, "items", docstore.Fields{})

	assert.ErrorIs(t, err, context.Canceled)
}

// ---- rules -----------------------------------------------------------------

func TestStore_RulesOnEveryOperation(t *testing.T) {
	s := newStore(ownerOnly)
	mine, err := s.Create(asUser("u1"), "items", docstore.Fields{"owner": "u1"})
	require.NoError(t, err)

	_, err = s.Create(asUser("u1"), "items", docstore.Fields{"owner": "u2"})
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)

	_, err = s.Get(asUser("u2"), mine.Path)
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)

	_, err = s.Update(asUser("u2"), mine.Path, docstore.Fields{"x": 1})
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)

	assert.ErrorIs(t, s.Delete(asUser("u2"), mine.Path), docstore.ErrPermissionDenied)

	_, err = s.Get(context.Background(), mine.Path)
	assert.ErrorIs(t, err, docstore.ErrUnauthenticated)

	_, err = s.Get(asUser("u1"), mine.Path)
	assert.NoError(t, err)
}

func TestStore_Query_RulesAreNotFilters(t *testing.T) {
	s := newStore(ownerOnly)
	_, err := s.Create(asUser("u1"), "items", docstore.Fields{"owner": "u1"})
	require.NoError(t, err)
	_, err = s.Create(asUser("u2"), "items", docstore.Fields{"owner": "u2"})
	require.NoError(t, err)

	// u1 asks for everything: one document is unreadable, so the query fails.
	_, err = s.Query(asUser("u1"), docstore.Query{Collection: "items"})
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)

	// Constraining the query to u1's documents succeeds.
	got, err := s.Query(asUser("u1"), docstore.Query{
		Collection: "items",
		Filters:    []docstore.Filter{{Field: "owner", Op: docstore.OpEqual, Value: "u1"}},
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// ---- queries ---------------------------------------------------------------

func seedNumbers(t *testing.T, s *memstore.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.Create(context.Background(), "nums", docstore.Fields{
			"n":      i % 3,
			"parity": []string{[]string{"even", "odd"}[i%2]},
		})
		require.NoError(t, err)
	}
}

func TestStore_Query_OrderAndTiebreak(t *testing.T) {
	s := newStore(docstore.AllowAll)
	seedNumbers(t, s, 6)

	got, err := s.Query(context.Background(), docstore.Query{
		Collection: "nums",
		Orders:     []docstore.Order{{Field: "n", Dir: docstore.Desc}},
	})

	require.NoError(t, err)
	var ids []string
	for _, snap := range got {
		ids = append(ids, snap.ID)
	}
	// n: doc001=0 doc002=1 doc003=2 doc004=0 doc005=1 doc006=2
	assert.Equal(t, []string{"doc003", "doc006", "doc002", "doc005", "doc001", "doc004"}, ids)
}

func TestStore_Query_AfterAndLimit(t *testing.T) {
	s := newStore(docstore.AllowAll)
	seedNumbers(t, s, 6)
	q := docstore.Query{
		Collection: "nums",
		Orders:     []docstore.Order{{Field: "n", Dir: docstore.Asc}},
		Limit:      2,
	}

	var seen []string
	for {
		page, err := s.Query(context.Background(), q)
		require.NoError(t, err)
		for _, snap := range page {
			seen = append(seen, snap.ID)
		}
		if len(page) < q.Limit {
			break
		}
		q.After = docstore.PositionOf(page[len(page)-1], q.Orders)
	}

	assert.Equal(t, []string{"doc001", "doc004", "doc002", "doc005", "doc003", "doc006"}, seen)
}

func TestStore_Query_ArrayContains(t *testing.T) {
	s := newStore(docstore.AllowAll)
	seedNumbers(t, s, 6)

	got, err := s.Query(context.Background(), docstore.Query{
		Collection: "nums",
		Filters:    []docstore.Filter{{Field: "parity", Op: docstore.OpArrayContains, Value: "odd"}},
	})

	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestStore_Query_Invalid(t *testing.T) {
	s := newStore(docstore.AllowAll)

	_, err := s.Query(context.Background(), docstore.Query{
		Collection: "nums",
		Filters:    []docstore.Filter{{Field: "n", Op: docstore.OpGreaterOrEqual, Value: 1}},
	})

	assert.ErrorIs(t, err, docstore.ErrInvalidQuery)
}

func TestStore_Query_IndexMissing(t *testing.T) {
	needed := docstore.Index{
		CollectionGroup: "nums",
		Fields: []docstore.IndexField{
			{Field: "parity", Mode: docstore.ModeContains},
			{Field: "n", Mode: docstore.ModeDesc},
		},
	}
	q := docstore.Query{
		Collection: "nums",
		Filters:    []docstore.Filter{{Field: "parity", Op: docstore.OpArrayContains, Value: "odd"}},
		Orders:     []docstore.Order{{Field: "n", Dir: docstore.Desc}},
	}

	bare := newStore(docstore.AllowAll, memstore.WithIndexes())
	_, err := bare.Query(context.Background(), q)
	var missing *docstore.IndexMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, needed.String(), missing.Index.String())

	indexed := newStore(docstore.AllowAll, memstore.WithIndexes(needed))
	_, err = indexed.Query(context.Background(), q)
	assert.NoError(t, err)

	// Single-field queries never need a composite index.
	_, err = bare.Query(context.Background(), docstore.Query{
		Collection: "nums",
		Orders:     []docstore.Order{{Field: "n", Dir: docstore.Desc}},
	})
	assert.NoError(t, err)
}

func TestStore_Seed_BypassesRules(t *testing.T) {
	s := newStore(ownerOnly)
	s.Seed("items", "legacy", docstore.Fields{"owner": "u1", "title": "Old"})

	got, err := s.Get(asUser("u1"), "items/legacy")

	require.NoError(t, err)
	assert.Equal(t, "Old", got.Fields["title"])
}

func TestStore_ConcurrentCreates(t *testing.T) {
	s := memstore.New(docstore.AllowAll)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(context.Background(), "items", docstore.Fields{"i": i})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Query(context.Background(), docstore.Query{Collection: "items"})
	require.NoError(t, err)
	assert.Len(t, got, 50)
}
