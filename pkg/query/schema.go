// Package query implements filtering, ordering and pagination over any record
// type that registers a Schema of its fields.
//
// Records are never inspected by reflection. Each record type declares its
// queryable fields once with a typed getter and a Kind; ApplyFilters,
// ApplyOrderBy and ToPagedResult only look at that table. The same Condition
// and SortKey values are interpreted either in memory (FromSlice) or compiled
// to SQL by a database backend.
package query

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a field for filter parsing and comparison.
type Kind int

const (
	KindText Kind = iota
	KindEnum
	KindBool
	KindTime
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindEnum:
		return "enum"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// FieldInfo is the backend-neutral description of a queryable field.
type FieldInfo struct {
	// Name is the field name as it appears in filters and order clauses.
	Name string
	// Column is the backing column for SQL backends.
	Column string
	Kind   Kind
	// Enum lists the declared values of an enum field in ordinal order.
	Enum []string
}

// enumIndex returns the ordinal of v among the declared enum values, or -1.
func (f FieldInfo) enumIndex(v string) int {
	for i, e := range f.Enum {
		if e == v {
			return i
		}
	}
	return -1
}

// parseEnum resolves v case-insensitively to its declared spelling.
func (f FieldInfo) parseEnum(v string) (string, bool) {
	for _, e := range f.Enum {
		if strings.EqualFold(e, v) {
			return e, true
		}
	}
	return "", false
}

// Field binds FieldInfo to a getter on T.
//
// The getter returns the normalised value (string, bool, time.Time or
// decimal.Decimal depending on Kind) and false when the value is null.
type Field[T any] struct {
	FieldInfo
	get func(T) (any, bool)
}

// Value returns the normalised value of the field for rec.
func (f Field[T]) Value(rec T) (any, bool) {
	return f.get(rec)
}

// Text registers a string field.
func Text[T any](name, column string, get func(T) string) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindText},
		get:       func(rec T) (any, bool) { return get(rec), true },
	}
}

// Enum registers a string-backed enumeration. Values are listed in ordinal
// order, which is also the sort order of the field.
func Enum[T any, E ~string](name, column string, values []E, get func(T) E) Field[T] {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindEnum, Enum: names},
		get:       func(rec T) (any, bool) { return string(get(rec)), true },
	}
}

// Bool registers a boolean field.
func Bool[T any](name, column string, get func(T) bool) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindBool},
		get:       func(rec T) (any, bool) { return get(rec), true },
	}
}

// Time registers a timestamp field.
func Time[T any](name, column string, get func(T) time.Time) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindTime},
		get:       func(rec T) (any, bool) { return get(rec), true },
	}
}

// NullableTime registers a timestamp field that may be unset.
func NullableTime[T any](name, column string, get func(T) *time.Time) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindTime},
		get: func(rec T) (any, bool) {
			v := get(rec)
			if v == nil {
				return nil, false
			}
			return *v, true
		},
	}
}

// Number registers a decimal field.
func Number[T any](name, column string, get func(T) decimal.Decimal) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindNumber},
		get:       func(rec T) (any, bool) { return get(rec), true },
	}
}

// Int registers an integer field. It behaves as a number field.
func Int[T any](name, column string, get func(T) int) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindNumber},
		get:       func(rec T) (any, bool) { return decimal.NewFromInt(int64(get(rec))), true },
	}
}

// Float registers a floating point field. It behaves as a number field.
func Float[T any](name, column string, get func(T) float64) Field[T] {
	return Field[T]{
		FieldInfo: FieldInfo{Name: name, Column: column, Kind: KindNumber},
		get:       func(rec T) (any, bool) { return decimal.NewFromFloat(get(rec)), true },
	}
}

// Schema is the set of queryable fields of T.
type Schema[T any] struct {
	fields []Field[T]
	byName map[string]int
}

// NewSchema builds a Schema. Field names are matched case-insensitively, so
// two fields differing only in case are rejected with a panic.
func NewSchema[T any](fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		key := strings.ToLower(f.Name)
		if _, dup := s.byName[key]; dup {
			panic("query: duplicate field " + f.Name)
		}
		s.byName[key] = i
	}
	return s
}

// Lookup resolves a field name case-insensitively.
func (s *Schema[T]) Lookup(name string) (Field[T], bool) {
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Field[T]{}, false
	}
	return s.fields[i], true
}

// Fields returns the registered fields in declaration order.
func (s *Schema[T]) Fields() []Field[T] {
	return s.fields
}

// field returns the registered field matching info.
func (s *Schema[T]) field(info FieldInfo) (Field[T], bool) {
	return s.Lookup(info.Name)
}
