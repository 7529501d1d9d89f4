package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-backoffice/pkg/query"
)

// table describes how a record type is read from PostgreSQL.
type table[T any] struct {
	schema *query.Schema[T]
	// from is the FROM clause, usually a bare table name.
	from string
	// columns is the SELECT list consumed by scan.
	columns string
	// tiebreak is appended to every ORDER BY so pages are deterministic.
	tiebreak string
	scan     pgx.RowToFunc[T]
	// afterFetch, when set, loads related rows for a fetched page.
	afterFetch func(ctx context.Context, items []T) error
}

// pgQuery compiles query conditions and sort keys to parameterised SQL.
type pgQuery[T any] struct {
	pool  *pgxpool.Pool
	t     *table[T]
	conds []query.Condition
	keys  []query.SortKey
}

var _ query.Queryable[struct{}] = (*pgQuery[struct{}])(nil)

func newQuery[T any](pool *pgxpool.Pool, t *table[T]) *pgQuery[T] {
	return &pgQuery[T]{pool: pool, t: t}
}

func (q *pgQuery[T]) Schema() *query.Schema[T] { return q.t.schema }

func (q *pgQuery[T]) Where(c query.Condition) query.Queryable[T] {
	n := q.clone()
	n.conds = append(n.conds, c)
	return n
}

func (q *pgQuery[T]) OrderBy(keys ...query.SortKey) query.Queryable[T] {
	n := q.clone()
	n.keys = append(n.keys, keys...)
	return n
}

func (q *pgQuery[T]) Count(ctx context.Context) (int, error) {
	sql, args, err := q.buildCount()
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q.t.from, err)
	}
	return n, nil
}

func (q *pgQuery[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	sql, args, err := q.buildSelect(offset, limit)
	if err != nil {
		return nil, err
	}
	rows, err := q.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.t.from, err)
	}
	items, err := pgx.CollectRows(rows, q.t.scan)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.t.from, err)
	}
	if q.t.afterFetch != nil && len(items) > 0 {
		if err := q.t.afterFetch(ctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (q *pgQuery[T]) buildCount() (string, []any, error) {
	var b builder
	b.WriteString("SELECT count(*) FROM ")
	b.WriteString(q.t.from)
	if err := q.where(&b); err != nil {
		return "", nil, err
	}
	return b.String(), b.args, nil
}

func (q *pgQuery[T]) buildSelect(offset, limit int) (string, []any, error) {
	var b builder
	b.WriteString("SELECT ")
	b.WriteString(q.t.columns)
	b.WriteString(" FROM ")
	b.WriteString(q.t.from)
	if err := q.where(&b); err != nil {
		return "", nil, err
	}
	q.orderBy(&b)
	if offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(b.arg(offset))
	}
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(b.arg(limit))
	}
	return b.String(), b.args, nil
}

func (q *pgQuery[T]) where(b *builder) error {
	for i, c := range q.conds {
		f, ok := q.t.schema.Lookup(c.Field.Name)
		if !ok {
			return &query.UnknownFieldError{Field: c.Field.Name}
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if err := predicate(b, f.FieldInfo, c); err != nil {
			return err
		}
	}
	return nil
}

func (q *pgQuery[T]) orderBy(b *builder) {
	b.WriteString(" ORDER BY ")
	for _, k := range q.keys {
		f, ok := q.t.schema.Lookup(k.Field.Name)
		if !ok {
			continue
		}
		switch f.Kind {
		case query.KindEnum:
			b.WriteString("array_position(")
			b.WriteString(b.arg(f.Enum))
			b.WriteString("::text[], ")
			b.WriteString(f.Column)
			b.WriteString(")")
		case query.KindText:
			b.WriteString(f.Column)
			b.WriteString(` COLLATE "C"`)
		default:
			b.WriteString(f.Column)
		}
		// Nulls come first in ascending order and last in descending order.
		if k.Desc {
			b.WriteString(" DESC NULLS LAST, ")
		} else {
			b.WriteString(" ASC NULLS FIRST, ")
		}
	}
	b.WriteString(q.t.tiebreak)
}

// predicate writes the SQL for c using the column of f. Text operands are
// matched case-sensitively.
func predicate(b *builder, f query.FieldInfo, c query.Condition) error {
	col := f.Column
	switch c.Op {
	case query.OpEq:
		b.WriteString(col)
		b.WriteString(" = ")
		b.WriteString(b.arg(c.Value))
		b.WriteString(cast(f.Kind))
	case query.OpContains:
		p := b.arg(c.Value)
		fmt.Fprintf(b, "strpos(%s, %s::text) > 0", col, p)
	case query.OpPrefix:
		p := b.arg(c.Value)
		fmt.Fprintf(b, "starts_with(%s, %s::text)", col, p)
	case query.OpSuffix:
		p := b.arg(c.Value)
		fmt.Fprintf(b, "right(%s, length(%s::text)) = %s::text", col, p, p)
	case query.OpGte:
		b.WriteString(col)
		b.WriteString(" >= ")
		b.WriteString(b.arg(c.Value))
		b.WriteString(cast(f.Kind))
	case query.OpLte:
		b.WriteString(col)
		b.WriteString(" <= ")
		b.WriteString(b.arg(c.Value))
		b.WriteString(cast(f.Kind))
	default:
		return fmt.Errorf("unsupported operator %s on %s", c.Op, f.Name)
	}
	return nil
}

func cast(k query.Kind) string {
	switch k {
	case query.KindText, query.KindEnum:
		return "::text"
	case query.KindBool:
		return "::boolean"
	case query.KindTime:
		return "::timestamptz"
	case query.KindNumber:
		return "::numeric"
	default:
		return ""
	}
}

func (q *pgQuery[T]) clone() *pgQuery[T] {
	n := &pgQuery[T]{pool: q.pool, t: q.t}
	n.conds = append(n.conds, q.conds...)
	n.keys = append(n.keys, q.keys...)
	return n
}

// builder accumulates SQL text and its positional arguments.
type builder struct {
	strings.Builder
	args []any
}

// arg registers v and returns its placeholder.
func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}
