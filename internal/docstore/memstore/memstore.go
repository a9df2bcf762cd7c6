// Package memstore is an in-process docstore.Store. It applies the same
// matching, ordering and authorization semantics as the Postgres store and
// can additionally enforce composite-index requirements, which makes it the
// backend of choice for unit tests and local development.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
)

type document struct {
	fields     docstore.Fields
	createTime time.Time
	updateTime time.Time
}

// Store keeps every document in memory, keyed by collection path then ID.
type Store struct {
	mu    sync.RWMutex
	colls map[string]map[string]document

	rules docstore.Rules
	now   func() time.Time
	newID func() string
	// indexes is nil when every composite index is assumed to exist.
	indexes map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the store clock used to resolve ServerTimestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the random document ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithIndexes makes the store reject queries whose composite index is not in
// idx, the way a managed document database does until the index is built.
func WithIndexes(idx ...docstore.Index) Option {
	return func(s *Store) {
		s.indexes = make(map[string]bool, len(idx))
		for _, i := range idx {
			s.indexes[i.String()] = true
		}
	}
}

// New returns an empty Store that authorizes every access with rules.
func New(rules docstore.Rules, opts ...Option) *Store {
	s := &Store{
		colls: make(map[string]map[string]document),
		rules: rules,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ docstore.Store = (*Store)(nil)

// Get reads a single document.
func (s *Store) Get(ctx context.Context, path string) (docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Snapshot{}, err
	}
	coll, id, err := docstore.SplitDocPath(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	s.mu.RLock()
	doc, ok := s.colls[coll][id]
	s.mu.RUnlock()

	req := docstore.NewRequest(ctx, docstore.MethodGet, path, s.now())
	if ok {
		req.Resource = doc.fields
	}
	if err := docstore.Authorize(s.rules, req); err != nil {
		return docstore.Snapshot{}, err
	}
	if !ok {
		return docstore.Snapshot{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, path)
	}
	return snapshot(coll, id, doc), nil
}

// Query runs q over a point-in-time view of the collection. Every returned
// document must pass the read rule, otherwise the whole query is denied.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if s.indexes != nil {
		if idx, needed := docstore.IndexFor(q); needed && !s.indexes[idx.String()] {
			return nil, &docstore.IndexMissingError{Index: idx}
		}
	}

	s.mu.RLock()
	var out []docstore.Snapshot
	for id, doc := range s.colls[q.Collection] {
		if docstore.Matches(q, doc.fields) {
			out = append(out, snapshot(q.Collection, id, doc))
		}
	}
	s.mu.RUnlock()

	positions := make(map[string]docstore.Position, len(out))
	for _, snap := range out {
		positions[snap.ID] = *docstore.PositionOf(snap, q.Orders)
	}
	sort.Slice(out, func(a, b int) bool {
		return docstore.ComparePosition(q.Orders, positions[out[a].ID], positions[out[b].ID]) < 0
	})

	if q.After != nil {
		start := sort.Search(len(out), func(i int) bool {
			return docstore.ComparePosition(q.Orders, positions[out[i].ID], *q.After) > 0
		})
		out = out[start:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	now := s.now()
	for _, snap := range out {
		req := docstore.NewRequest(ctx, docstore.MethodList, snap.Path, now)
		req.Resource = snap.Fields
		if err := docstore.Authorize(s.rules, req); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Create stores fields under a fresh ID in collection.
func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Snapshot{}, err
	}
	if !docstore.ValidCollection(collection) {
		return docstore.Snapshot{}, fmt.Errorf("%w: %q is not a collection path", docstore.ErrInvalidQuery, collection)
	}

	now := s.now().UTC()
	incoming := docstore.ResolveTransforms(docstore.Clone(fields), now)
	id := s.newID()
	path := docstore.DocPath(collection, id)

	req := docstore.NewRequest(ctx, docstore.MethodCreate, path, now)
	req.Incoming = incoming
	if err := docstore.Authorize(s.rules, req); err != nil {
		return docstore.Snapshot{}, err
	}

	doc := document{fields: incoming, createTime: now, updateTime: now}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.colls[collection] == nil {
		s.colls[collection] = make(map[string]document)
	}
	s.colls[collection][id] = doc
	return snapshot(collection, id, doc), nil
}

// Update merges patch into the document at path.
func (s *Store) Update(ctx context.Context, path string, patch docstore.Fields) (docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Snapshot{}, err
	}
	coll, id, err := docstore.SplitDocPath(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.colls[coll][id]
	if !ok {
		return docstore.Snapshot{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, path)
	}

	now := s.now().UTC()
	merged := docstore.ResolveTransforms(docstore.Merge(doc.fields, patch), now)

	req := docstore.NewRequest(ctx, docstore.MethodUpdate, path, now)
	req.Resource = doc.fields
	req.Incoming = merged
	if err := docstore.Authorize(s.rules, req); err != nil {
		return docstore.Snapshot{}, err
	}

	doc.fields = merged
	doc.updateTime = now
	s.colls[coll][id] = doc
	return snapshot(coll, id, doc), nil
}

// Delete removes the document at path. Documents in its sub-collections are
// left in place.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id, err := docstore.SplitDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.colls[coll][id]
	if !ok {
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, path)
	}

	req := docstore.NewRequest(ctx, docstore.MethodDelete, path, s.now())
	req.Resource = doc.fields
	if err := docstore.Authorize(s.rules, req); err != nil {
		return err
	}

	delete(s.colls[coll], id)
	return nil
}

// Seed writes fields directly under collection/id, bypassing the rules and
// transforms. It exists to load fixtures, including records in shapes
// current clients would never write.
func (s *Store) Seed(collection, id string, fields docstore.Fields) {
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.colls[collection] == nil {
		s.colls[collection] = make(map[string]document)
	}
	s.colls[collection][id] = document{fields: docstore.Clone(fields), createTime: now, updateTime: now}
}

func snapshot(coll, id string, doc document) docstore.Snapshot {
	return docstore.Snapshot{
		Path:       docstore.DocPath(coll, id),
		ID:         id,
		Fields:     docstore.Clone(doc.fields),
		CreateTime: doc.createTime,
		UpdateTime: doc.updateTime,
	}
}
