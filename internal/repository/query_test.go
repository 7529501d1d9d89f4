package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

// --- Helpers ---

func productField(t *testing.T, name string) query.FieldInfo {
	t.Helper()
	f, ok := product.Schema.Lookup(name)
	require.True(t, ok, name)
	return f.FieldInfo
}

func productQuery() *pgQuery[product.Product] {
	return newQuery(nil, productTable)
}

// --- Tests ---

func TestBuildSelect_NoConditions(t *testing.T) {
	sql, args, err := productQuery().buildSelect(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+productColumns+" FROM products ORDER BY id", sql)
	assert.Empty(t, args)
}

func TestBuildSelect_ConditionsOrderAndPage(t *testing.T) {
	price := decimal.NewFromInt(10)
	q := productQuery().
		Where(query.Condition{Field: productField(t, "Title"), Op: query.OpContains, Value: "Bag"}).
		Where(query.Condition{Field: productField(t, "Price"), Op: query.OpGte, Value: price}).
		OrderBy(
			query.SortKey{Field: productField(t, "Price"), Desc: true},
			query.SortKey{Field: productField(t, "Title")},
		)

	sql, args, err := q.(*pgQuery[product.Product]).buildSelect(20, 10)
	require.NoError(t, err)

	want := "SELECT " + productColumns + " FROM products" +
		" WHERE strpos(title, $1::text) > 0 AND price >= $2::numeric" +
		` ORDER BY price DESC NULLS LAST, title COLLATE "C" ASC NULLS FIRST, id` +
		" OFFSET $3 LIMIT $4"
	assert.Equal(t, want, sql)
	assert.Equal(t, []any{"Bag", price, 20, 10}, args)
}

func TestBuildCount_Predicates(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		cond  query.Condition
		where string
	}{
		{
			name:  "text equality",
			cond:  query.Eq(productField(t, "Category"), "electronics"),
			where: "category = $1::text",
		},
		{
			name:  "prefix",
			cond:  query.Condition{Field: productField(t, "Title"), Op: query.OpPrefix, Value: "Mens"},
			where: "starts_with(title, $1::text)",
		},
		{
			name:  "suffix",
			cond:  query.Condition{Field: productField(t, "Category"), Op: query.OpSuffix, Value: "clothing"},
			where: "right(category, length($1::text)) = $1::text",
		},
		{
			name:  "time upper bound",
			cond:  query.Condition{Field: productField(t, "CreatedAt"), Op: query.OpLte, Value: created},
			where: "created_at <= $1::timestamptz",
		},
		{
			name:  "integer lower bound",
			cond:  query.Condition{Field: productField(t, "RatingCount"), Op: query.OpGte, Value: decimal.NewFromInt(100)},
			where: "rating_count >= $1::numeric",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := productQuery().Where(tt.cond).(*pgQuery[product.Product])

			sql, args, err := q.buildCount()
			require.NoError(t, err)
			assert.Equal(t, "SELECT count(*) FROM products WHERE "+tt.where, sql)
			assert.Equal(t, []any{tt.cond.Value}, args)
		})
	}
}

func TestBuildSelect_EnumOrdinalOrder(t *testing.T) {
	f, ok := user.Schema.Lookup("Status")
	require.True(t, ok)
	q := newQuery(nil, userTable).OrderBy(query.SortKey{Field: f.FieldInfo})

	sql, args, err := q.(*pgQuery[user.User]).buildSelect(0, 5)
	require.NoError(t, err)
	assert.Contains(t, sql, " ORDER BY array_position($1::text[], status) ASC NULLS FIRST, id LIMIT $2")
	assert.Equal(t, []any{[]string{"Active", "Inactive", "Suspended"}, 5}, args)
}

func TestBuildSelect_ColumnsComeFromSchema(t *testing.T) {
	// A caller-supplied column is ignored in favour of the registered one.
	f := productField(t, "Title")
	f.Column = "title; DROP TABLE products"
	q := productQuery().Where(query.Eq(f, "x")).(*pgQuery[product.Product])

	sql, _, err := q.buildCount()
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(*) FROM products WHERE title = $1::text", sql)
}

func TestBuildSelect_UnknownField(t *testing.T) {
	q := productQuery().Where(query.Eq(query.FieldInfo{Name: "Nope"}, "x")).(*pgQuery[product.Product])

	_, _, err := q.buildSelect(0, 0)
	var uerr *query.UnknownFieldError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Nope", uerr.Field)
}

func TestPgQuery_Immutable(t *testing.T) {
	base := productQuery()
	_ = base.Where(query.Eq(productField(t, "Category"), "electronics"))
	_ = base.OrderBy(query.SortKey{Field: productField(t, "Title")})

	assert.Empty(t, base.conds)
	assert.Empty(t, base.keys)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/store", migrateURL("postgres://u:p@db:5432/store"))
	assert.Equal(t, "pgx5://u:p@db:5432/store", migrateURL("postgresql://u:p@db:5432/store"))
	assert.Equal(t, "pgx5://db/store", migrateURL("pgx5://db/store"))
}
