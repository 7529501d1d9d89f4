package query

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	minPrefix = "_min"
	maxPrefix = "_max"
	wildcard  = "*"
)

// OnParseFailure tells ApplyFilters what to do with a value that cannot be
// parsed for the field's kind.
type OnParseFailure int

const (
	Skip OnParseFailure = iota
	Raise
)

// ParsePolicy maps a field kind to its parse failure handling. Only enum
// values raise; every other kind drops the filter.
var ParsePolicy = map[Kind]OnParseFailure{
	KindText:   Skip,
	KindEnum:   Raise,
	KindBool:   Skip,
	KindTime:   Skip,
	KindNumber: Skip,
}

// timeLayouts are tried in order when parsing date/time filter values.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ApplyFilters narrows q by every entry of filters and returns the result.
//
// Keys are matched case-insensitively against the schema and unknown keys are
// ignored. A key prefixed with "_min" or "_max" requests an inclusive range on
// a time or number field. Text values may use "*" wildcards: "*v*" contains,
// "v*" starts with, "*v" ends with. Entries are applied in key order so the
// resulting condition list is deterministic. The map is not modified.
func ApplyFilters[T any](q Queryable[T], filters map[string]string) (Queryable[T], error) {
	schema := q.Schema()
	for _, rawKey := range slices.Sorted(maps.Keys(filters)) {
		key := strings.TrimSpace(rawKey)
		value := strings.TrimSpace(filters[rawKey])
		if key == "" || value == "" {
			continue
		}

		var rangeOp Op
		isRange := false
		switch {
		case strings.HasPrefix(key, minPrefix):
			key, rangeOp, isRange = strings.TrimPrefix(key, minPrefix), OpGte, true
		case strings.HasPrefix(key, maxPrefix):
			key, rangeOp, isRange = strings.TrimPrefix(key, maxPrefix), OpLte, true
		}

		f, ok := schema.Lookup(key)
		if !ok {
			continue
		}

		var (
			cond Condition
			err  error
		)
		if isRange {
			cond, ok, err = rangeCondition(f.FieldInfo, rangeOp, value)
		} else {
			cond, ok, err = matchCondition(f.FieldInfo, value)
		}
		if err != nil {
			return nil, err
		}
		if ok {
			q = q.Where(cond)
		}
	}
	return q, nil
}

func matchCondition(f FieldInfo, value string) (Condition, bool, error) {
	if strings.HasPrefix(value, wildcard) || strings.HasSuffix(value, wildcard) {
		return wildcardCondition(f, value)
	}

	switch f.Kind {
	case KindText:
		return Eq(f, value), true, nil
	case KindEnum:
		v, ok := f.parseEnum(value)
		if !ok {
			return parseFailure(f, value)
		}
		return Eq(f, v), true, nil
	case KindBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return parseFailure(f, value)
		}
		return Eq(f, v), true, nil
	case KindTime:
		v, ok := parseTime(value)
		if !ok {
			return parseFailure(f, value)
		}
		return Eq(f, v), true, nil
	}
	// Numbers only take range filters.
	return Condition{}, false, nil
}

func wildcardCondition(f FieldInfo, value string) (Condition, bool, error) {
	if f.Kind != KindText {
		return Condition{}, false, nil
	}
	leading := strings.HasPrefix(value, wildcard)
	trailing := strings.HasSuffix(value, wildcard)
	needle := strings.Trim(value, wildcard)
	if needle == "" {
		return Condition{}, false, nil
	}

	op := OpContains
	switch {
	case trailing && !leading:
		op = OpPrefix
	case leading && !trailing:
		op = OpSuffix
	}
	return Condition{Field: f, Op: op, Value: needle}, true, nil
}

func rangeCondition(f FieldInfo, op Op, value string) (Condition, bool, error) {
	switch f.Kind {
	case KindTime:
		v, ok := parseTime(value)
		if !ok {
			return parseFailure(f, value)
		}
		return Condition{Field: f, Op: op, Value: v}, true, nil
	case KindNumber:
		v, err := decimal.NewFromString(value)
		if err != nil {
			return parseFailure(f, value)
		}
		return Condition{Field: f, Op: op, Value: v}, true, nil
	}
	return Condition{}, false, nil
}

func parseFailure(f FieldInfo, value string) (Condition, bool, error) {
	if ParsePolicy[f.Kind] == Raise {
		return Condition{}, false, &FilterError{Field: f.Name, Value: value, Kind: f.Kind}
	}
	return Condition{}, false, nil
}

func parseTime(value string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
