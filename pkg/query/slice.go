package query

import (
	"context"
	"slices"
)

// sliceQuery evaluates conditions and ordering over an in-memory slice.
type sliceQuery[T any] struct {
	schema *Schema[T]
	items  []T
	conds  []Condition
	keys   []SortKey
}

var _ Queryable[struct{}] = (*sliceQuery[struct{}])(nil)

// FromSlice returns a Queryable over items. The slice is not copied or
// modified; results are fresh slices.
func FromSlice[T any](schema *Schema[T], items []T) Queryable[T] {
	return &sliceQuery[T]{schema: schema, items: items}
}

func (q *sliceQuery[T]) Schema() *Schema[T] { return q.schema }

func (q *sliceQuery[T]) Where(c Condition) Queryable[T] {
	n := q.clone()
	n.conds = append(n.conds, c)
	return n
}

func (q *sliceQuery[T]) OrderBy(keys ...SortKey) Queryable[T] {
	n := q.clone()
	n.keys = append(n.keys, keys...)
	return n
}

func (q *sliceQuery[T]) Count(ctx context.Context) (int, error) {
	matched, err := q.filter(ctx)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (q *sliceQuery[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	matched, err := q.filter(ctx)
	if err != nil {
		return nil, err
	}
	if len(q.keys) > 0 {
		slices.SortStableFunc(matched, q.less)
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []T{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (q *sliceQuery[T]) filter(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := make([]Field[T], len(q.conds))
	for i, c := range q.conds {
		f, ok := q.schema.field(c.Field)
		if !ok {
			return nil, &UnknownFieldError{Field: c.Field.Name}
		}
		fields[i] = f
	}

	out := make([]T, 0, len(q.items))
	for _, rec := range q.items {
		keep := true
		for i, c := range q.conds {
			if !c.match(fields[i].Value(rec)) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (q *sliceQuery[T]) less(a, b T) int {
	for _, k := range q.keys {
		f, ok := q.schema.field(k.Field)
		if !ok {
			continue
		}
		av, aok := f.Value(a)
		bv, bok := f.Value(b)
		c := compare(k.Field, av, aok, bv, bok)
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func (q *sliceQuery[T]) clone() *sliceQuery[T] {
	return &sliceQuery[T]{
		schema: q.schema,
		items:  q.items,
		conds:  slices.Clone(q.conds),
		keys:   slices.Clone(q.keys),
	}
}
