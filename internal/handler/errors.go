package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-backoffice/internal/domain/auth"
	"github.com/xenking/storefront-backoffice/internal/domain/cart"
	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/internal/domain/validate"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Error types of the error envelope.
const (
	typeValidation     = "ValidationError"
	typeAuthentication = "AuthenticationError"
	typeNotFound       = "ResourceNotFound"
	typePolicy         = "PolicyViolation"
	typeFilter         = "FilterError"
	typeCancelled      = "Cancelled"
	typeInternal       = "InternalServerError"
)

// statusClientClosedRequest is the nginx convention for a request the client
// abandoned.
const statusClientClosedRequest = 499

// fail maps a domain error to its HTTP response. Unmapped errors are logged
// and answered with 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *validate.Error
		ferr    *query.FilterError
		rerr    *query.RequestError
		limit   *cart.QuantityLimitError
		missing *cart.ProductNotFoundError
		owner   *cart.UserNotFoundError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, typeValidation, "invalid input data", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, f := range verr.Fields {
					e.Obj(func(e *jx.Encoder) {
						e.Field("field", func(e *jx.Encoder) { e.Str(f.Field) })
						e.Field("message", func(e *jx.Encoder) { e.Str(f.Message) })
					})
				}
			})
		})
	case errors.As(err, &ferr):
		writeError(w, http.StatusBadRequest, typeFilter, ferr.Error(), nil)
	case errors.As(err, &rerr), errors.Is(err, query.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, typeValidation, err.Error(), nil)
	case errors.Is(err, cart.ErrEmptyItems),
		errors.Is(err, user.ErrEmailExists),
		errors.Is(err, user.ErrUsernameExists),
		errors.Is(err, product.ErrTitleExists):
		writeError(w, http.StatusBadRequest, typeValidation, err.Error(), nil)
	case errors.As(err, &limit):
		writeError(w, http.StatusUnprocessableEntity, typePolicy, limit.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInactiveUser),
		errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, typeAuthentication, err.Error(), nil)
	case errors.As(err, &missing), errors.As(err, &owner):
		writeError(w, http.StatusNotFound, typeNotFound, err.Error(), nil)
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrNotFound):
		writeError(w, http.StatusNotFound, typeNotFound, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		writeError(w, statusClientClosedRequest, typeCancelled, "request cancelled", nil)
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, typeInternal, "internal server error", nil)
	}
}
