package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mcmalerts/internal/auth"
)

// AuthHandler serves login and logout for the dashboard.
type AuthHandler struct {
	Sessions *auth.Sessions
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(sessions *auth.Sessions) *AuthHandler {
	return &AuthHandler{Sessions: sessions}
}

// Login handles POST /api/auth/login.
// Body: {"username": "...", "password": "..."}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	session := h.Sessions.Login(req.Username, req.Password)
	if session == nil {
		JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	JSONResponse(w, session)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.Sessions.FromRequest(r); session != nil {
		h.Sessions.Delete(session.Token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
