package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// storeErr translates a docstore error into the domain taxonomy, prefixed
// with op. Context errors pass through unchanged apart from the prefix.
func storeErr(op string, err error) error {
	var missing *docstore.IndexMissingError
	switch {
	case errors.As(err, &missing):
		fields := make([]domain.IndexField, len(missing.Index.Fields))
		for i, f := range missing.Index.Fields {
			fields[i] = domain.IndexField{Field: f.Field, Mode: f.Mode}
		}
		return fmt.Errorf("%s: %w", op, &domain.IndexMissingError{
			Collection: missing.Index.CollectionGroup,
			Fields:     fields,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, docstore.ErrUnauthenticated):
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	case errors.Is(err, docstore.ErrPermissionDenied):
		return fmt.Errorf("%s: %w: %s", op, domain.ErrPermissionDenied, reason(err))
	case errors.Is(err, docstore.ErrUnavailable):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	case errors.Is(err, docstore.ErrInvalidQuery):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrValidation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// reason strips the docstore prefix so the rule's own explanation reaches
// the caller.
func reason(err error) string {
	msg := err.Error()
	return strings.TrimPrefix(msg, docstore.ErrPermissionDenied.Error()+": ")
}

// validID rejects IDs that would address a different document path.
func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}
