// Package docstore defines a small document-database contract: schema-flexible
// documents in named collections, queried by field predicates and ordering
// clauses, with keyset continuation. Every implementation evaluates a Rules
// value on each document it reads or writes, using the principal carried in
// the request context (see package auth).
//
// Two implementations live in sub-packages: memstore (in-process, also
// emulates composite-index requirements) and pgstore (Postgres JSONB).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrPermissionDenied is returned when the rules reject an access.
	ErrPermissionDenied = errors.New("docstore: permission denied")
	// ErrUnauthenticated is returned for operations attempted without a principal.
	ErrUnauthenticated = errors.New("docstore: unauthenticated")
	// ErrInvalidQuery is returned for queries the store cannot execute as written.
	ErrInvalidQuery = errors.New("docstore: invalid query")
	// ErrUnavailable wraps transient backend failures.
	ErrUnavailable = errors.New("docstore: unavailable")
)

// IndexMissingError reports that a query needs a composite index the store
// has not built.
type IndexMissingError struct {
	Index Index
}

func (e *IndexMissingError) Error() string {
	return "docstore: query requires an index: " + e.Index.String()
}

// Fields is the content of a document.
type Fields map[string]any

// Snapshot is a document as read from (or just written to) the store.
type Snapshot struct {
	Path       string
	ID         string
	Fields     Fields
	CreateTime time.Time
	UpdateTime time.Time
}

// Store is the client surface shared by every backend.
//
// Create, Update and Delete are atomic per document. No operation spans more
// than one document.
type Store interface {
	// Get reads one document by path ("coll/id" or "coll/id/sub/id").
	Get(ctx context.Context, path string) (Snapshot, error)
	// Query runs q and returns the matching documents in order.
	Query(ctx context.Context, q Query) ([]Snapshot, error)
	// Create adds a document with a store-generated ID to collection.
	Create(ctx context.Context, collection string, fields Fields) (Snapshot, error)
	// Update merges patch into an existing document.
	Update(ctx context.Context, path string, patch Fields) (Snapshot, error)
	// Delete removes a document.
	Delete(ctx context.Context, path string) error
}

// DocPath joins a collection path and a document ID.
func DocPath(collection, id string) string {
	return collection + "/" + id
}

// SplitDocPath splits a document path into its collection path and ID.
func SplitDocPath(path string) (collection, id string, err error) {
	segs := strings.Split(path, "/")
	if len(segs) < 2 || len(segs)%2 != 0 || hasEmpty(segs) {
		return "", "", fmt.Errorf("%w: %q is not a document path", ErrInvalidQuery, path)
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1], nil
}

// ValidCollection reports whether path names a collection (odd number of
// non-empty segments).
func ValidCollection(path string) bool {
	segs := strings.Split(path, "/")
	return len(segs)%2 == 1 && !hasEmpty(segs)
}

func hasEmpty(segs []string) bool {
	for _, s := range segs {
		if s == "" {
			return true
		}
	}
	return false
}
