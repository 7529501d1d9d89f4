package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-backoffice/internal/domain/auth"
)

// requireAuth rejects requests without a valid bearer token and stores the
// verified claims in the request context.
func (h *Handler) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, typeAuthentication, "missing bearer token", nil)
			return
		}
		claims, err := h.auth.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, typeAuthentication, auth.ErrInvalidToken.Error(), nil)
			return
		}

		ctx := auth.WithClaims(r.Context(), claims)
		ctx = zctx.With(ctx, zap.String("user_id", claims.Subject))
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate exchanges credentials for a bearer token.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "User authenticated successfully", func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("token", func(e *jx.Encoder) { e.Str(s.Token) })
			e.Field("expiresAt", func(e *jx.Encoder) { encodeTime(e, s.ExpiresAt) })
			e.Field("email", func(e *jx.Encoder) { e.Str(s.User.Email) })
			e.Field("name", func(e *jx.Encoder) { e.Str(s.User.Username) })
			e.Field("role", func(e *jx.Encoder) { e.Str(string(s.User.Role)) })
		})
	})
}
