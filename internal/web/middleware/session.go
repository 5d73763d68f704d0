package middleware

import (
	"context"
	"net/http"

	"github.com/kozaktomas/facetag/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession attaches the caller's display session to the request context,
// creating the session and its cookie on first contact.
func WithSession(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sm.Ensure(w, r)
			ctx := context.WithValue(r.Context(), sessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *session.Session {
	s, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use WithSession middleware in production.
func SetSessionInContext(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// MustGetSession returns the session or writes a 500 and returns nil.
func MustGetSession(ctx context.Context, w http.ResponseWriter) *session.Session {
	s := GetSessionFromContext(ctx)
	if s == nil {
		http.Error(w, `{"error": "session not initialised"}`, http.StatusInternalServerError)
		return nil
	}
	return s
}
