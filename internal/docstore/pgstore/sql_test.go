package pgstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
)

func TestBuildQuery_FiltersAndOrder(t *testing.T) {
	sql, args, err := buildQuery(docstore.Query{
		Collection: "productIdeas",
		Filters: []docstore.Filter{
			{Field: "archivedAt", Op: docstore.OpEqual, Value: nil},
			{Field: "tags", Op: docstore.OpArrayContains, Value: "ux"},
		},
		Orders: []docstore.Order{{Field: "updatedAt", Dir: docstore.Desc}},
		Limit:  21,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, data, create_time, update_time FROM documents WHERE collection = @collection"+
			" AND (data->'archivedAt') = @p0::jsonb"+
			" AND (jsonb_typeof((data->'tags')) = 'array' AND (data->'tags') @> @p1::jsonb)"+
			" AND data ? 'updatedAt'"+
			" ORDER BY ((data->>'updatedAt') COLLATE \"C\") DESC NULLS LAST, id ASC LIMIT @limit",
		sql)
	assert.Equal(t, "productIdeas", args["collection"])
	assert.Equal(t, "null", args["p0"])
	assert.Equal(t, `["ux"]`, args["p1"])
	assert.Equal(t, 21, args["limit"])
}

func TestBuildQuery_NotEqualExcludesNull(t *testing.T) {
	sql, _, err := buildQuery(docstore.Query{
		Collection: "productIdeas",
		Filters:    []docstore.Filter{{Field: "archivedAt", Op: docstore.OpNotEqual, Value: nil}},
		Orders:     []docstore.Order{{Field: "archivedAt", Dir: docstore.Desc}},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "((data->'archivedAt') <> @p0::jsonb AND (data->'archivedAt') <> 'null'::jsonb)")
	assert.NotContains(t, sql, "LIMIT")
}

func TestBuildQuery_RangeIsTypeScoped(t *testing.T) {
	sql, args, err := buildQuery(docstore.Query{
		Collection: "productIdeas",
		Filters: []docstore.Filter{
			{Field: "titleLower", Op: docstore.OpGreaterOrEqual, Value: "alp"},
		},
		Orders: []docstore.Order{{Field: "titleLower", Dir: docstore.Asc}},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `(jsonb_typeof((data->'titleLower')) = jsonb_typeof(@p0::jsonb)`+
		` AND ((data->>'titleLower') COLLATE "C") >= ((@p0::jsonb #>> '{}') COLLATE "C"))`)
	assert.Contains(t, sql, `ORDER BY ((data->>'titleLower') COLLATE "C") ASC NULLS FIRST, id ASC`)
	assert.Equal(t, `"alp"`, args["p0"])
}

func TestBuildQuery_AfterChain(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sql, args, err := buildQuery(docstore.Query{
		Collection: "productIdeas",
		Orders: []docstore.Order{
			{Field: "archivedAt", Dir: docstore.Desc},
			{Field: "titleLower", Dir: docstore.Asc},
		},
		After: &docstore.Position{Values: []any{ts, "alpha"}, ID: "abc"},
	})
	require.NoError(t, err)

	const (
		archivedAt = `((data->>'archivedAt') COLLATE "C")`
		titleLower = `((data->>'titleLower') COLLATE "C")`
		p0         = `((@p0::jsonb #>> '{}') COLLATE "C")`
		p1         = `((@p1::jsonb #>> '{}') COLLATE "C")`
	)
	assert.Contains(t, sql,
		"((("+archivedAt+" < "+p0+" OR "+archivedAt+" IS NULL))"+
			" OR ("+archivedAt+" = "+p0+" AND "+titleLower+" > "+p1+")"+
			" OR ("+archivedAt+" = "+p0+" AND "+titleLower+" = "+p1+" AND id > @after_id))")
	assert.Equal(t, `{"@ts":"2025-01-02T03:04:05.000000000Z"}`, args["p0"])
	assert.Equal(t, `"alpha"`, args["p1"])
	assert.Equal(t, "abc", args["after_id"])
}

func TestBuildQuery_AfterNullPosition(t *testing.T) {
	const archivedAt = `((data->>'archivedAt') COLLATE "C")`

	// Nulls sort last descending: only ties on null remain.
	sql, args, err := buildQuery(docstore.Query{
		Collection: "productIdeas",
		Orders:     []docstore.Order{{Field: "archivedAt", Dir: docstore.Desc}},
		After:      &docstore.Position{Values: []any{nil}, ID: "abc"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "(("+archivedAt+" IS NULL AND id > @after_id))")
	assert.NotContains(t, args, "p0")

	// Nulls sort first ascending: every non-null value follows.
	sql, _, err = buildQuery(docstore.Query{
		Collection: "productIdeas",
		Orders:     []docstore.Order{{Field: "archivedAt", Dir: docstore.Asc}},
		After:      &docstore.Position{Values: []any{nil}, ID: "abc"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "(("+archivedAt+" IS NOT NULL) OR ("+archivedAt+" IS NULL AND id > @after_id))")
}
