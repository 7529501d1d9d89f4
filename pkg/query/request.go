package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Reserved query-string parameters. Every other parameter is a filter.
const (
	ParamPage  = "_page"
	ParamSize  = "_size"
	ParamOrder = "_order"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxPageSize = 100
)

// Request is the query-string form of a paged list call.
type Request struct {
	Page    int
	Size    int
	Order   string
	Filters map[string]string
}

// ParseRequest reads a Request from query parameters. Missing page and size
// take their defaults, size is capped at MaxPageSize, and a page or size that
// is not a positive integer is rejected. Blank filter values are dropped; for
// repeated keys the first value wins.
func ParseRequest(v url.Values) (Request, error) {
	r := Request{
		Page:    DefaultPage,
		Size:    DefaultSize,
		Order:   strings.TrimSpace(v.Get(ParamOrder)),
		Filters: make(map[string]string),
	}

	var err error
	if r.Page, err = positiveParam(v, ParamPage, DefaultPage); err != nil {
		return Request{}, err
	}
	if r.Size, err = positiveParam(v, ParamSize, DefaultSize); err != nil {
		return Request{}, err
	}
	r.Size = min(r.Size, MaxPageSize)

	for key, values := range v {
		switch key {
		case ParamPage, ParamSize, ParamOrder:
			continue
		}
		if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		r.Filters[key] = values[0]
	}
	return r, nil
}

func positiveParam(v url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &RequestError{Param: name, Value: raw}
	}
	return n, nil
}

// Values encodes r back into query parameters.
func (r Request) Values() url.Values {
	v := make(url.Values, len(r.Filters)+3)
	v.Set(ParamPage, strconv.Itoa(r.Page))
	v.Set(ParamSize, strconv.Itoa(r.Size))
	if r.Order != "" {
		v.Set(ParamOrder, r.Order)
	}
	for key, value := range r.Filters {
		v.Set(key, value)
	}
	return v
}
