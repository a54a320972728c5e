package middleware

import (
	"context"
	"net/http"
)

type RoleStore interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// RequireRole rejects callers without the given role. The role check runs
// server side on every request; client claims are never trusted.
func RequireRole(roles RoleStore, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			hasRole, err := roles.HasRole(r.Context(), userID, role)
			if err != nil {
				http.Error(w, "unable to verify role", http.StatusInternalServerError)
				return
			}
			if !hasRole {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
