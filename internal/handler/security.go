package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
)

// TokenParser validates a bearer token and returns the caller's identity.
type TokenParser interface {
	ParseToken(token string) (*auth.Identity, error)
}

type identityKey struct{}

// IdentityFromContext extracts the authenticated identity stored by
// Authenticate. The second return is false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// Authenticate rejects requests without a valid Bearer token and stores the
// resulting identity in the request context.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondError(w, r, auth.ErrInvalidToken)
				return
			}

			id, err := parser.ParseToken(token)
			if err != nil {
				respondError(w, r, auth.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, *id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards back-office routes. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			respondError(w, r, auth.ErrInvalidToken)
			return
		}
		if !id.IsAdmin() {
			respondFail(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}
