package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultPageSize is used when the caller does not ask for a page size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size to prevent runaway queries.
	MaxPageSize = 100
)

// IdeaFilters selects which ideas a page contains. All fields combine with
// logical AND; zero values mean "no constraint" except Archived, which always
// picks one of the two branches (active or archived).
type IdeaFilters struct {
	Archived bool
	Status   Status
	OwnerID  string
	// Tag matches ideas carrying this tag. Only one tag per query.
	Tag string
	// Q is a case-insensitive title prefix. Blank means no search.
	Q string
}

// Normalized returns a copy with the UI conventions folded away: "all" for
// status or tag means no filter, the tag is normalized like stored tags and
// the search term is trimmed and lowercased.
func (f IdeaFilters) Normalized() IdeaFilters {
	out := f
	if strings.EqualFold(string(out.Status), "all") {
		out.Status = ""
	}
	out.Tag = strings.ToLower(strings.TrimSpace(out.Tag))
	if out.Tag == "all" {
		out.Tag = ""
	}
	out.OwnerID = strings.TrimSpace(out.OwnerID)
	out.Q = strings.ToLower(strings.TrimSpace(out.Q))
	return out
}

// Searching reports whether the filters request a title-prefix search.
func (f IdeaFilters) Searching() bool {
	return strings.TrimSpace(f.Q) != ""
}

// IdeaPage is one page of a cursor-paginated listing.
// NextCursor is empty when no further page exists.
type IdeaPage struct {
	Items      []ProductIdea `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// NewPageSize resolves an optional page-size parameter.
// A nil pointer falls back to DefaultPageSize; values above MaxPageSize are
// capped; zero or negative sizes are rejected.
func NewPageSize(size *int) (int, error) {
	if size == nil {
		return DefaultPageSize, nil
	}
	if *size < 1 {
		return 0, fmt.Errorf("%w: page size must be positive", ErrValidation)
	}
	if *size > MaxPageSize {
		return MaxPageSize, nil
	}
	return *size, nil
}
