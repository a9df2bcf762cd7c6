// Package pgstore implements docstore.Store on a single Postgres table of
// JSONB documents. Single-document writes run in a transaction that locks the
// row, so the rules always see the version being replaced.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Tests pass a pgx.Tx that is rolled back after each test; Begin on a Tx
// opens a savepoint.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the Postgres docstore.
type Store struct {
	db    db
	rules docstore.Rules
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used to resolve ServerTimestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the random document ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func New(db db, rules docstore.Rules, opts ...Option) *Store {
	s := &Store{
		db:    db,
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

// clock returns the store time at the precision Postgres keeps.
func (s *Store) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Get reads one document.
func (s *Store) Get(ctx context.Context, path string) (docstore.Snapshot, error) {
	coll, id, err := docstore.SplitDocPath(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	const q = `
		SELECT id, data, create_time, update_time
		FROM documents
		WHERE collection = @collection AND id = @id`

	snap, err := scanSnapshot(coll, s.db.QueryRow(ctx, q, pgx.NamedArgs{"collection": coll, "id": id}))
	found := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return docstore.Snapshot{}, classify("Get", err)
	}

	req := docstore.NewRequest(ctx, docstore.MethodGet, path, s.clock())
	if found {
		req.Resource = snap.Fields
	}
	if err := docstore.Authorize(s.rules, req); err != nil {
		return docstore.Snapshot{}, err
	}
	if !found {
		return docstore.Snapshot{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, path)
	}
	return snap, nil
}

// Query runs q. Composite indexes are never required: Postgres falls back
// to the GIN index or a scan.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	sql, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		return nil, classify("Query", err)
	}
	defer rows.Close()

	var out []docstore.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(q.Collection, rows)
		if err != nil {
			return nil, classify("Query: scan", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("Query: rows", err)
	}

	now := s.clock()
	for _, snap := range out {
		req := docstore.NewRequest(ctx, docstore.MethodList, snap.Path, now)
		req.Resource = snap.Fields
		if err := docstore.Authorize(s.rules, req); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Create inserts fields under a fresh ID.
func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (docstore.Snapshot, error) {
	if !docstore.ValidCollection(collection) {
		return docstore.Snapshot{}, fmt.Errorf("%w: %q is not a collection path", docstore.ErrInvalidQuery, collection)
	}

	now := s.clock()
	incoming := docstore.ResolveTransforms(docstore.Clone(fields), now)
	id := s.newID()
	path := docstore.DocPath(collection, id)

	req := docstore.NewRequest(ctx, docstore.MethodCreate, path, now)
	req.Incoming = incoming
	if err := docstore.Authorize(s.rules, req); err != nil {
		return docstore.Snapshot{}, err
	}

	data, err := docstore.MarshalFields(incoming)
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("pgstore.Store.Create: %w", err)
	}

	const q = `
		INSERT INTO documents (collection, id, data, create_time, update_time)
		VALUES (@collection, @id, @data::jsonb, @now, @now)
		RETURNING id, data, create_time, update_time`

	snap, err := scanSnapshot(collection, s.db.QueryRow(ctx, q, pgx.NamedArgs{
		"collection": collection,
		"id":         id,
		"data":       string(data),
		"now":        now,
	}))
	if err != nil {
		return docstore.Snapshot{}, classify("Create", err)
	}
	return snap, nil
}

// Update merges patch into the stored document under a row lock.
func (s *Store) Update(ctx context.Context, path string, patch docstore.Fields) (docstore.Snapshot, error) {
	coll, id, err := docstore.SplitDocPath(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	var out docstore.Snapshot
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		existing, err := lockDocument(ctx, tx, coll, id)
		if err != nil {
			return err
		}

		now := s.clock()
		merged := docstore.ResolveTransforms(docstore.Merge(existing.Fields, patch), now)

		req := docstore.NewRequest(ctx, docstore.MethodUpdate, path, now)
		req.Resource = existing.Fields
		req.Incoming = merged
		if err := docstore.Authorize(s.rules, req); err != nil {
			return err
		}

		data, err := docstore.MarshalFields(merged)
		if err != nil {
			return err
		}

		const q = `
			UPDATE documents
			SET data = @data::jsonb, update_time = @now
			WHERE collection = @collection AND id = @id
			RETURNING id, data, create_time, update_time`

		out, err = scanSnapshot(coll, tx.QueryRow(ctx, q, pgx.NamedArgs{
			"collection": coll,
			"id":         id,
			"data":       string(data),
			"now":        now,
		}))
		return err
	})
	if err != nil {
		return docstore.Snapshot{}, s.wrap("Update", path, err)
	}
	return out, nil
}

// Delete removes the document at path. Sub-collection documents stay.
func (s *Store) Delete(ctx context.Context, path string) error {
	coll, id, err := docstore.SplitDocPath(path)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		existing, err := lockDocument(ctx, tx, coll, id)
		if err != nil {
			return err
		}

		req := docstore.NewRequest(ctx, docstore.MethodDelete, path, s.clock())
		req.Resource = existing.Fields
		if err := docstore.Authorize(s.rules, req); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM documents WHERE collection = @collection AND id = @id`,
			pgx.NamedArgs{"collection": coll, "id": id})
		return err
	})
	if err != nil {
		return s.wrap("Delete", path, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// wrap passes docstore errors through and classifies everything else.
func (s *Store) wrap(op, path string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, path)
	case errors.Is(err, docstore.ErrPermissionDenied),
		errors.Is(err, docstore.ErrUnauthenticated),
		errors.Is(err, docstore.ErrInvalidQuery):
		return err
	}
	return classify(op, err)
}

func lockDocument(ctx context.Context, tx pgx.Tx, coll, id string) (docstore.Snapshot, error) {
	const q = `
		SELECT id, data, create_time, update_time
		FROM documents
		WHERE collection = @collection AND id = @id
		FOR UPDATE`
	return scanSnapshot(coll, tx.QueryRow(ctx, q, pgx.NamedArgs{"collection": coll, "id": id}))
}

// scanSnapshot reads one row in (id, data, create_time, update_time) order.
// Accepts both pgx.Row and pgx.Rows via the shared Scan signature.
func scanSnapshot(coll string, row pgx.Row) (docstore.Snapshot, error) {
	var (
		snap docstore.Snapshot
		data []byte
	)
	if err := row.Scan(&snap.ID, &data, &snap.CreateTime, &snap.UpdateTime); err != nil {
		return docstore.Snapshot{}, err
	}
	fields, err := docstore.UnmarshalFields(data)
	if err != nil {
		return docstore.Snapshot{}, err
	}
	snap.Path = docstore.DocPath(coll, snap.ID)
	snap.Fields = fields
	snap.CreateTime = snap.CreateTime.UTC()
	snap.UpdateTime = snap.UpdateTime.UTC()
	return snap, nil
}

// classify maps driver failures onto docstore.ErrUnavailable when a retry
// could succeed. Context cancellation is returned as is.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if transient(err) {
		return fmt.Errorf("%w: pgstore.Store.%s: %v", docstore.ErrUnavailable, op, err)
	}
	return fmt.Errorf("pgstore.Store.%s: %w", op, err)
}

func transient(err error) bool {
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08": // connection exception
			return true
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "53": // insufficient resources
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P01", pgErr.Code == "57P03":
			return true
		}
	}
	return false
}
