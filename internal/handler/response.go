package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-backoffice/pkg/query"
)

// writeJSON encodes the body with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeData writes {"success":true,"message":msg,"data":...}. A nil data
// omits the data field.
func writeData(w http.ResponseWriter, status int, msg string, data func(e *jx.Encoder)) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
			if data != nil {
				e.Field("data", data)
			}
		})
	})
}

// writePage writes a paged list envelope.
func writePage[T any](w http.ResponseWriter, p *query.Page[T], item func(e *jx.Encoder, v *T)) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
			e.Field("data", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range p.Items {
						item(e, &p.Items[i])
					}
				})
			})
			e.Field("totalCount", func(e *jx.Encoder) { e.Int(p.TotalCount) })
			e.Field("currentPage", func(e *jx.Encoder) { e.Int(p.PageNumber) })
			e.Field("pageSize", func(e *jx.Encoder) { e.Int(p.PageSize) })
			e.Field("totalPages", func(e *jx.Encoder) { e.Int(p.TotalPages) })
		})
	})
}

// writeError writes {"type":typ,"error":msg,"detail":...}. A nil detail
// omits the detail field.
func writeError(w http.ResponseWriter, status int, typ, msg string, detail func(e *jx.Encoder)) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("type", func(e *jx.Encoder) { e.Str(typ) })
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
			if detail != nil {
				e.Field("detail", detail)
			}
		})
	})
}

// decode reads the JSON request body into v. On failure it writes a 400
// response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, typeValidation, "request body too large", nil)
		return false
	}
	writeError(w, http.StatusBadRequest, typeValidation, "invalid request body", func(e *jx.Encoder) {
		e.Str(err.Error())
	})
	return false
}

func pageRequest(w http.ResponseWriter, r *http.Request) (query.Request, bool) {
	req, err := query.ParseRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, typeValidation, err.Error(), nil)
		return query.Request{}, false
	}
	return req, true
}
