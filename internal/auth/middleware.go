package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is the type for context keys in the auth package.
type contextKey string

// SessionKey is the context key for session data.
const SessionKey contextKey = "session"

// Middleware checks for a valid session before calling next.
func (s *Sessions) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.enabled {
			next(w, r)
			return
		}

		session := s.FromRequest(r)
		if session == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		next(w, r.WithContext(ctx))
	}
}

// FromRequest extracts a session from the request cookie or
// Authorization header.
func (s *Sessions) FromRequest(r *http.Request) *Session {
	var token string

	if cookie, err := r.Cookie("session"); err == nil {
		token = cookie.Value
	} else if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	return s.Get(token)
}

// FromContext extracts the session stored in the request context.
func FromContext(r *http.Request) *Session {
	if session, ok := r.Context().Value(SessionKey).(*Session); ok {
		return session
	}
	return nil
}
