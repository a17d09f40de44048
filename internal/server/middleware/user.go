package middleware

import (
	"context"
	"net/http"
)

// DefaultUserID identifies the demo account used when no X-User-ID header
// is supplied. The concierge runs without authentication, so the header is
// trusted as-is.
const DefaultUserID = "demo-user-001"

// UserContext resolves the acting user from the X-User-ID header and stores
// it in the request context for handlers downstream.
func UserContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				userID = DefaultUserID
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
