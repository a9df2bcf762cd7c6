package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// document does not exist in the store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails a check
// that can be made before any store call (empty title, malformed tag, ...).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned when the caller carries no identity.
// Every store operation rejects anonymous callers.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrPermissionDenied is returned when the authorization rules reject an
// access. It is never retryable: the same request will be rejected again.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInvalidCursor is returned when a pagination cursor is malformed or was
// produced under a different filter/order configuration.
var ErrInvalidCursor = errors.New("invalid cursor")

// ErrIndexMissing is returned when a query shape has no backing composite
// index. Use errors.As with *IndexMissingError to read which index is needed.
var ErrIndexMissing = errors.New("index missing")

// ErrUnavailable marks transient store or network failures. Retrying later
// may succeed; the core itself never retries.
var ErrUnavailable = errors.New("store unavailable")

// IndexField is one entry of a composite index definition.
type IndexField struct {
	Field string `json:"field"`
	// Mode is "asc", "desc" or "contains".
	Mode string `json:"mode"`
}

// IndexMissingError describes the composite index an operator has to
// provision before the failing query can succeed.
type IndexMissingError struct {
	Collection string       `json:"collection"`
	Fields     []IndexField `json:"fields"`
}

func (e *IndexMissingError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Mode
	}
	return fmt.Sprintf("index missing: %s (%s)", e.Collection, strings.Join(parts, ", "))
}

// Is lets errors.Is(err, ErrIndexMissing) match any IndexMissingError.
func (e *IndexMissingError) Is(target error) bool {
	return target == ErrIndexMissing
}

// Retryable reports whether err is worth retrying once the underlying
// condition clears: transient failures and missing indexes are, everything
// else is not.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrIndexMissing)
}
