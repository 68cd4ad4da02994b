// Package middleware provides the HTTP middleware chain for the transaction
// service: request logging, metrics, authentication context, and transport
// level idempotent replay.
package middleware

import (
	"context"
	"net/http"
	"strings"

	authpkg "github.com/django102/routelink-capricorn/pkg/auth"
)

// AuthMiddleware creates an HTTP middleware that validates authentication
// tokens and adds user context to the request context.
func AuthMiddleware(validator authpkg.TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromHeader(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthenticated")
				return
			}

			userCtx, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthenticated")
				return
			}

			ctx := context.WithValue(r.Context(), authpkg.UserContextKey{}, userCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*authpkg.UserContext, bool) {
	userCtx, ok := ctx.Value(authpkg.UserContextKey{}).(*authpkg.UserContext)
	return userCtx, ok
}

func extractTokenFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
