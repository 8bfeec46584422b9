package middleware

import (
	"net/http"
	"strings"

	"github.com/quick-orders/internal/domain"
	jwtinfra "github.com/quick-orders/internal/infrastructure/jwt"
)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// Session returns middleware that accepts a Bearer session JWT or the session
// cookie and puts the shopper's identity into the request context. A nil
// verifier means sessions are disabled and every request gets 503.
func Session(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				writeJSONError(w, http.StatusServiceUnavailable, "sessions are not enabled")
				return
			}
			tokenStr := sessionToken(r, cookieName)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "customer not logged in")
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			ctx := domain.WithIdentity(r.Context(), claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
