package query

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrInvalidPage is returned when a page number or page size is below 1.
var ErrInvalidPage = errors.New("page number and page size must be at least 1")

// FilterError reports a filter value that cannot be parsed for a field whose
// parse failures are not skipped.
type FilterError struct {
	Field string
	Value string
	Kind  Kind
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s value %q for filter %s", e.Kind, e.Value, e.Field)
}

// UnknownFieldError reports a condition or sort key referencing a field the
// backend does not know. ApplyFilters and ApplyOrderBy never produce one; it
// only surfaces when a caller builds conditions by hand.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %s", e.Field)
}

// RequestError reports a malformed reserved query parameter.
type RequestError struct {
	Param string
	Value string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid %s parameter %q", e.Param, e.Value)
}
