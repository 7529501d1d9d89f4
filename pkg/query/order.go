package query

import "strings"

// ParseOrder turns an order specification such as "status desc, username"
// into sort keys. Clauses naming unknown fields are dropped.
func ParseOrder[T any](schema *Schema[T], order string) []SortKey {
	var keys []SortKey
	for _, clause := range strings.Split(order, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}

		desc := false
		lower := strings.ToLower(clause)
		switch {
		case strings.HasSuffix(lower, " desc"):
			desc = true
			clause = clause[:len(clause)-len(" desc")]
		case strings.HasSuffix(lower, " asc"):
			clause = clause[:len(clause)-len(" asc")]
		}

		f, ok := schema.Lookup(strings.TrimSpace(clause))
		if !ok {
			continue
		}
		keys = append(keys, SortKey{Field: f.FieldInfo, Desc: desc})
	}
	return keys
}

// ApplyOrderBy sorts q by the clauses in order. The first resolved clause is
// the primary key and later clauses break ties; full ties keep their source
// order. A blank order, or one with no resolvable field, returns q unchanged.
func ApplyOrderBy[T any](q Queryable[T], order string) Queryable[T] {
	if strings.TrimSpace(order) == "" {
		return q
	}
	keys := ParseOrder(q.Schema(), order)
	if len(keys) == 0 {
		return q
	}
	return q.OrderBy(keys...)
}
