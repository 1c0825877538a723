package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// CartTokenHeader carries the anonymous cart session token.
const CartTokenHeader = "X-Cart-Token"

const maxCartTokenLen = 64

// CartToken resolves the anonymous cart token. A request without one is issued
// a fresh token, echoed back in the response header so the client can keep it.
func CartToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(CartTokenHeader))
			if len(token) > maxCartTokenLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token too long"))
				return
			}
			if token == "" {
				token = uuid.NewString()
			}
			w.Header().Set(CartTokenHeader, token)
			next.ServeHTTP(w, r.WithContext(WithCartToken(r.Context(), token)))
		})
	}
}
