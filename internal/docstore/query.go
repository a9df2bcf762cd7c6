package docstore

import (
	"fmt"
	"regexp"
)

// Op is a filter operator.
type Op string

const (
	OpEqual          Op = "=="
	OpNotEqual       Op = "!="
	OpArrayContains  Op = "array-contains"
	OpGreaterOrEqual Op = ">="
	OpLess           Op = "<"
)

// Inequality reports whether the operator constrains a range rather than a
// single value. Inequality fields must be ordered on.
func (o Op) Inequality() bool {
	return o == OpNotEqual || o == OpGreaterOrEqual || o == OpLess
}

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one ordering clause. Ties after the last clause are broken by
// document ID ascending.
type Order struct {
	Field string
	Dir   Direction
}

// Position marks a place in a query's total order: the values of each Order
// field plus the document ID. Results start strictly after it.
type Position struct {
	Values []any
	ID     string
}

// PositionOf returns the position of snap under orders.
func PositionOf(snap Snapshot, orders []Order) *Position {
	vals := make([]any, len(orders))
	for i, o := range orders {
		vals[i] = Canonical(snap.Fields[o.Field])
	}
	return &Position{Values: vals, ID: snap.ID}
}

// Query selects documents from a single collection.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	// After resumes the query strictly after a previous result.
	After *Position
	// Limit caps the number of results; zero means unlimited.
	Limit int
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks q against the rules every store enforces:
//   - field names are simple identifiers;
//   - at most one array-contains filter;
//   - every inequality field is ordered on, and the first order clause is an
//     inequality field when any inequality exists;
//   - After carries one value per order clause.
func (q Query) Validate() error {
	if !ValidCollection(q.Collection) {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidQuery, q.Collection)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}

	ordered := make(map[string]bool, len(q.Orders))
	for _, o := range q.Orders {
		if !fieldPattern.MatchString(o.Field) {
			return fmt.Errorf("%w: bad field name %q", ErrInvalidQuery, o.Field)
		}
		if o.Dir != Asc && o.Dir != Desc {
			return fmt.Errorf("%w: bad direction %q for %s", ErrInvalidQuery, o.Dir, o.Field)
		}
		if ordered[o.Field] {
			return fmt.Errorf("%w: %s ordered twice", ErrInvalidQuery, o.Field)
		}
		ordered[o.Field] = true
	}

	contains := 0
	inequality := make(map[string]bool)
	for _, f := range q.Filters {
		if !fieldPattern.MatchString(f.Field) {
			return fmt.Errorf("%w: bad field name %q", ErrInvalidQuery, f.Field)
		}
		switch f.Op {
		case OpEqual:
		case OpArrayContains:
			contains++
		case OpNotEqual, OpGreaterOrEqual, OpLess:
			inequality[f.Field] = true
			if !ordered[f.Field] {
				return fmt.Errorf("%w: inequality on %s requires an order clause on the same field", ErrInvalidQuery, f.Field)
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, f.Op)
		}
	}
	if contains > 1 {
		return fmt.Errorf("%w: at most one array-contains filter per query", ErrInvalidQuery)
	}
	if len(inequality) > 0 && !inequality[q.Orders[0].Field] {
		return fmt.Errorf("%w: first order clause must be on an inequality field", ErrInvalidQuery)
	}
	if q.After != nil && len(q.After.Values) != len(q.Orders) {
		return fmt.Errorf("%w: cursor has %d values for %d order clauses", ErrInvalidQuery, len(q.After.Values), len(q.Orders))
	}
	return nil
}
