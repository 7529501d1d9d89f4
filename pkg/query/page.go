package query

import (
	"context"

	"github.com/go-faster/errors"
)

// Page is one page of a filtered, ordered result.
type Page[T any] struct {
	Items      []T
	TotalCount int
	PageNumber int
	PageSize   int
	TotalPages int
}

// TotalPagesFor returns ceil(total / size). It is zero for a non-positive size.
func TotalPagesFor(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ToPagedResult filters q, counts the matches, orders them and returns the
// requested page.
//
// Count and Fetch are separate calls on the backend; for a database source the
// total may drift from the fetched page if rows change in between.
func ToPagedResult[T any](
	ctx context.Context,
	q Queryable[T],
	pageNumber, pageSize int,
	order string,
	filters map[string]string,
) (*Page[T], error) {
	if pageNumber < 1 || pageSize < 1 {
		return nil, ErrInvalidPage
	}

	filtered, err := ApplyFilters(q, filters)
	if err != nil {
		return nil, err
	}

	total, err := filtered.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count")
	}

	items, err := ApplyOrderBy(filtered, order).Fetch(ctx, (pageNumber-1)*pageSize, pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}

	return &Page[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: TotalPagesFor(total, pageSize),
	}, nil
}

// Paginate runs r against q. It is ToPagedResult with the arguments taken from
// a parsed request.
func Paginate[T any](ctx context.Context, q Queryable[T], r Request) (*Page[T], error) {
	return ToPagedResult(ctx, q, r.Page, r.Size, r.Order, r.Filters)
}

// MapPage converts the items of a page, keeping its counters.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return &Page[U]{
		Items:      items,
		TotalCount: p.TotalCount,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
