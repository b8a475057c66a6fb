package server

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyEmail stores the authenticated user's email
	ContextKeyEmail ContextKey = "email"
)

// UserIDFromContext returns the authenticated subject, empty when the request
// did not pass RequireAuth.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}

// RequireAuth is middleware that validates a Bearer access token and injects
// the subject and email claims into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				respondError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			subject, email, err := s.verifyToken(r.Context(), parts[1])
			if err != nil {
				s.log.Debug().Err(err).Msg("token rejected")
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, subject)
			ctx = context.WithValue(ctx, ContextKeyEmail, email)
			next(w, r.WithContext(ctx))
		}
	}
}
