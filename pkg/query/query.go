package query

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Op is a comparison operator of a Condition.
type Op int

const (
	OpEq Op = iota
	OpContains
	OpPrefix
	OpSuffix
	OpGte
	OpLte
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpContains:
		return "contains"
	case OpPrefix:
		return "prefix"
	case OpSuffix:
		return "suffix"
	case OpGte:
		return "gte"
	case OpLte:
		return "lte"
	default:
		return "unknown"
	}
}

// Condition is a single predicate over a field. Value holds the normalised
// operand for the field's Kind.
type Condition struct {
	Field FieldInfo
	Op    Op
	Value any
}

// Eq builds an equality condition.
func Eq(f FieldInfo, v any) Condition {
	return Condition{Field: f, Op: OpEq, Value: v}
}

// SortKey is one clause of an ordering.
type SortKey struct {
	Field FieldInfo
	Desc  bool
}

// Queryable is a composable source of T. Where and OrderBy never modify the
// receiver; they return a new Queryable.
//
// Conditions passed to Where are combined with AND. OrderBy appends keys to
// any ordering already present, so the first key ever given stays primary.
type Queryable[T any] interface {
	Schema() *Schema[T]
	Where(c Condition) Queryable[T]
	OrderBy(keys ...SortKey) Queryable[T]
	// Count returns the number of records matching the conditions.
	Count(ctx context.Context) (int, error)
	// Fetch returns matching records in order. A limit <= 0 means no limit.
	Fetch(ctx context.Context, offset, limit int) ([]T, error)
}

// match evaluates c against a normalised field value.
func (c Condition) match(v any, present bool) bool {
	if !present {
		return false
	}
	switch c.Field.Kind {
	case KindText, KindEnum:
		s, _ := v.(string)
		want, _ := c.Value.(string)
		switch c.Op {
		case OpEq:
			return s == want
		case OpContains:
			return strings.Contains(s, want)
		case OpPrefix:
			return strings.HasPrefix(s, want)
		case OpSuffix:
			return strings.HasSuffix(s, want)
		}
	case KindBool:
		b, _ := v.(bool)
		want, _ := c.Value.(bool)
		return c.Op == OpEq && b == want
	case KindTime:
		t, _ := v.(time.Time)
		want, _ := c.Value.(time.Time)
		switch c.Op {
		case OpEq:
			return t.Equal(want)
		case OpGte:
			return !t.Before(want)
		case OpLte:
			return !t.After(want)
		}
	case KindNumber:
		d, _ := v.(decimal.Decimal)
		want, _ := c.Value.(decimal.Decimal)
		switch c.Op {
		case OpEq:
			return d.Equal(want)
		case OpGte:
			return d.GreaterThanOrEqual(want)
		case OpLte:
			return d.LessThanOrEqual(want)
		}
	}
	return false
}

// compare orders two normalised values of field f. Nulls sort first.
func compare(f FieldInfo, a any, aok bool, b any, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	switch f.Kind {
	case KindText:
		return strings.Compare(a.(string), b.(string))
	case KindEnum:
		ai, bi := f.enumIndex(a.(string)), f.enumIndex(b.(string))
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case KindBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	case KindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case KindNumber:
		return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
	}
	return 0
}
