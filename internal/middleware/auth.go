package middleware

import (
	"net/http"
	"strings"

	"docuvault/internal/auth"
	"docuvault/internal/httputil"
)

// publicPaths can be reached without a token.
var publicPaths = map[string]bool{
	"/health":            true,
	"/metrics":           true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
}

// Auth verifies the Bearer token on every request and stores the caller's
// identity in the request context.
func Auth(tokens auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, claims.Subject, claims.Role))
		})
	}
}
