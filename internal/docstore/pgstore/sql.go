package pgstore

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
)

// buildQuery renders q as a SELECT over the documents table.
//
// Field names are inlined as string literals (Validate restricts them to
// identifiers) so that the expressions match the expression indexes created
// by the migrations. Values are always bound as jsonb parameters.
//
// Ordering, range filters and keyset bounds compare the text form of a field
// under the C collation, so strings order by their bytes whatever the
// database locale. Tagged timestamps are fixed-width and sort
// chronologically as text. JSON null sorts lowest, as in memstore.
func buildQuery(q docstore.Query) (string, pgx.NamedArgs, error) {
	b := &builder{args: pgx.NamedArgs{"collection": q.Collection}}
	where := []string{"collection = @collection"}

	for _, f := range q.Filters {
		cond, err := b.filter(f)
		if err != nil {
			return "", nil, err
		}
		where = append(where, cond)
	}
	for _, o := range q.Orders {
		where = append(where, fmt.Sprintf("data ? '%s'", o.Field))
	}
	if q.After != nil {
		cond, err := b.after(q.Orders, *q.After)
		if err != nil {
			return "", nil, err
		}
		where = append(where, cond)
	}

	order := make([]string, 0, len(q.Orders)+1)
	for _, o := range q.Orders {
		dir := "ASC NULLS FIRST"
		if o.Dir == docstore.Desc {
			dir = "DESC NULLS LAST"
		}
		order = append(order, fmt.Sprintf("%s %s", key(o.Field), dir))
	}
	order = append(order, "id ASC")

	sql := "SELECT id, data, create_time, update_time FROM documents WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY " + strings.Join(order, ", ")
	if q.Limit > 0 {
		sql += " LIMIT @limit"
		b.args["limit"] = q.Limit
	}
	return sql, b.args, nil
}

type builder struct {
	args pgx.NamedArgs
	n    int
}

// bind registers v as a jsonb parameter and returns its placeholder.
func (b *builder) bind(v any) (string, error) {
	raw, err := docstore.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("%w: encode value: %v", docstore.ErrInvalidQuery, err)
	}
	name := fmt.Sprintf("p%d", b.n)
	b.n++
	b.args[name] = string(raw)
	return "@" + name + "::jsonb", nil
}

func field(name string) string {
	return fmt.Sprintf("(data->'%s')", name)
}

// key is the sort key of a field.
func key(name string) string {
	return fmt.Sprintf(`((data->>'%s') COLLATE "C")`, name)
}

// textOf renders the text form of a bound jsonb parameter, comparable with key.
func textOf(p string) string {
	return fmt.Sprintf(`((%s #>> '{}') COLLATE "C")`, p)
}

func (b *builder) filter(f docstore.Filter) (string, error) {
	col := field(f.Field)
	switch f.Op {
	case docstore.OpEqual:
		p, err := b.bind(f.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", col, p), nil
	case docstore.OpNotEqual:
		p, err := b.bind(f.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s <> %s AND %s <> 'null'::jsonb)", col, p, col), nil
	case docstore.OpArrayContains:
		p, err := b.bind([]any{f.Value})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(jsonb_typeof(%s) = 'array' AND %s @> %s)", col, col, p), nil
	case docstore.OpGreaterOrEqual, docstore.OpLess:
		p, err := b.bind(f.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(jsonb_typeof(%s) = jsonb_typeof(%s) AND %s %s %s)", col, p, key(f.Field), string(f.Op), textOf(p)), nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", docstore.ErrInvalidQuery, f.Op)
}

// after renders the keyset condition "strictly after pos" as an OR chain:
// (k1 > v1) OR (k1 = v1 AND k2 > v2) OR ... OR (all equal AND id > pos.ID),
// with ">" flipped to "<" on descending keys. A null position value is
// matched with IS NULL and bounded by the null ordering.
func (b *builder) after(orders []docstore.Order, pos docstore.Position) (string, error) {
	values := make([]string, len(orders))
	for i, v := range pos.Values {
		if docstore.Canonical(v) == nil {
			continue
		}
		p, err := b.bind(v)
		if err != nil {
			return "", err
		}
		values[i] = textOf(p)
	}
	b.args["after_id"] = pos.ID

	var alts []string
	for i := 0; i <= len(orders); i++ {
		var terms []string
		for j := 0; j < i; j++ {
			if values[j] == "" {
				terms = append(terms, key(orders[j].Field)+" IS NULL")
			} else {
				terms = append(terms, fmt.Sprintf("%s = %s", key(orders[j].Field), values[j]))
			}
		}
		if i == len(orders) {
			terms = append(terms, "id > @after_id")
		} else {
			term, ok := beyond(orders[i], values[i])
			if !ok {
				continue
			}
			terms = append(terms, term)
		}
		alts = append(alts, "("+strings.Join(terms, " AND ")+")")
	}
	return "(" + strings.Join(alts, " OR ") + ")", nil
}

// beyond renders "k sorts strictly after v" for one order key; v is empty
// for null. ok is false when nothing can sort after v.
func beyond(o docstore.Order, v string) (term string, ok bool) {
	k := key(o.Field)
	switch {
	case o.Dir == docstore.Asc && v == "":
		return k + " IS NOT NULL", true
	case o.Dir == docstore.Asc:
		return fmt.Sprintf("%s > %s", k, v), true
	case v == "":
		return "", false
	default:
		return fmt.Sprintf("(%s < %s OR %s IS NULL)", k, v, k), true
	}
}
