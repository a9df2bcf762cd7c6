package docstore

import (
	"sort"
	"strings"
)

// Index modes.
const (
	ModeAsc      = "asc"
	ModeDesc     = "desc"
	ModeContains = "contains"
)

// IndexField is one column of a composite index.
type IndexField struct {
	Field string
	Mode  string
}

// Index is a composite index over one collection group (the last segment of
// a collection path, so every idea's notes share the "notes" group).
type Index struct {
	CollectionGroup string
	Fields          []IndexField
}

// String renders the index as "group(field mode, ...)". Two indexes are the
// same index when their strings are equal.
func (i Index) String() string {
	parts := make([]string, len(i.Fields))
	for n, f := range i.Fields {
		parts[n] = f.Field + " " + f.Mode
	}
	return i.CollectionGroup + "(" + strings.Join(parts, ", ") + ")"
}

// CollectionGroup returns the group a collection path belongs to.
func CollectionGroup(collection string) string {
	if n := strings.LastIndex(collection, "/"); n >= 0 {
		return collection[n+1:]
	}
	return collection
}

// IndexFor returns the composite index q needs. The second result is false
// when single-field indexes (always present) are enough: queries touching
// at most one field, or with no order clause at all.
//
// Equality and array-contains fields come first, sorted by name; the order
// clauses follow in query order.
func IndexFor(q Query) (Index, bool) {
	ordered := make(map[string]bool, len(q.Orders))
	for _, o := range q.Orders {
		ordered[o.Field] = true
	}

	var eq []IndexField
	seen := make(map[string]bool)
	for _, f := range q.Filters {
		if ordered[f.Field] || seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		mode := ModeAsc
		if f.Op == OpArrayContains {
			mode = ModeContains
		}
		eq = append(eq, IndexField{Field: f.Field, Mode: mode})
	}
	sort.Slice(eq, func(a, b int) bool { return eq[a].Field < eq[b].Field })

	if len(q.Orders) == 0 || len(eq)+len(q.Orders) < 2 {
		return Index{}, false
	}

	fields := eq
	for _, o := range q.Orders {
		mode := ModeAsc
		if o.Dir == Desc {
			mode = ModeDesc
		}
		fields = append(fields, IndexField{Field: o.Field, Mode: mode})
	}
	return Index{CollectionGroup: CollectionGroup(q.Collection), Fields: fields}, true
}
