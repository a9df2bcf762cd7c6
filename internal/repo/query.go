package repo

import (
	"sort"
	"unicode/utf8"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// IdeasCollection is the top-level collection holding every idea.
const IdeasCollection = "productIdeas"

// HighSentinel is appended to a search term to form the exclusive upper
// bound of its prefix range: every string starting with the term sorts
// below term+HighSentinel.
const HighSentinel = string(utf8.MaxRune)

// notesCollection is the sub-collection holding an idea's notes.
func notesCollection(ideaID string) string {
	return docstore.DocPath(IdeasCollection, ideaID) + "/notes"
}

// BuildIdeaQuery translates filters into a store query.
//
// Archived selects one of two branches: archivedAt == null, or
// archivedAt != null ordered by archivedAt desc first (the store requires an
// inequality field to lead the ordering). A search term switches the next
// ordering key from updatedAt desc to titleLower asc and bounds titleLower to
// [q, q+HighSentinel).
func BuildIdeaQuery(filters domain.IdeaFilters) docstore.Query {
	f := filters.Normalized()
	q := docstore.Query{Collection: IdeasCollection}

	if f.Archived {
		q.Filters = append(q.Filters, docstore.Filter{Field: "archivedAt", Op: docstore.OpNotEqual, Value: nil})
		q.Orders = append(q.Orders, docstore.Order{Field: "archivedAt", Dir: docstore.Desc})
	} else {
		q.Filters = append(q.Filters, docstore.Filter{Field: "archivedAt", Op: docstore.OpEqual, Value: nil})
	}
	if f.Status != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "status", Op: docstore.OpEqual, Value: string(f.Status)})
	}
	if f.OwnerID != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "ownerId", Op: docstore.OpEqual, Value: f.OwnerID})
	}
	if f.Tag != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "tags", Op: docstore.OpArrayContains, Value: f.Tag})
	}

	if f.Searching() {
		q.Filters = append(q.Filters,
			docstore.Filter{Field: "titleLower", Op: docstore.OpGreaterOrEqual, Value: f.Q},
			docstore.Filter{Field: "titleLower", Op: docstore.OpLess, Value: f.Q + HighSentinel},
		)
		q.Orders = append(q.Orders, docstore.Order{Field: "titleLower", Dir: docstore.Asc})
	} else {
		q.Orders = append(q.Orders, docstore.Order{Field: "updatedAt", Dir: docstore.Desc})
	}
	return q
}

// notesQuery lists an idea's notes newest first.
func notesQuery(ideaID string) docstore.Query {
	return docstore.Query{
		Collection: notesCollection(ideaID),
		Orders:     []docstore.Order{{Field: "createdAt", Dir: docstore.Desc}},
	}
}

// RequiredIndexes lists every composite index the queries built here can
// need, derived by enumerating the filter combinations. Provision these
// before deploying against a store that enforces indexes.
func RequiredIndexes() []docstore.Index {
	seen := make(map[string]docstore.Index)
	add := func(q docstore.Query) {
		if idx, ok := docstore.IndexFor(q); ok {
			seen[idx.String()] = idx
		}
	}

	for _, archived := range []bool{false, true} {
		for _, status := range []domain.Status{"", domain.StatusDraft} {
			for _, owner := range []string{"", "x"} {
				for _, tag := range []string{"", "x"} {
					for _, q := range []string{"", "x"} {
						add(BuildIdeaQuery(domain.IdeaFilters{
							Archived: archived,
							Status:   status,
							OwnerID:  owner,
							Tag:      tag,
							Q:        q,
						}))
					}
				}
			}
		}
	}
	add(notesQuery("x"))

	out := make([]docstore.Index, 0, len(seen))
	for _, idx := range seen {
		out = append(out, idx)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].String() < out[b].String() })
	return out
}
