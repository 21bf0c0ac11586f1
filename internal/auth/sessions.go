// Package auth provides session authentication for the dashboard API.
// The ingest endpoint and push registration stay open; only the
// presentation-facing routes sit behind it.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"mcmalerts/internal/db"
)

const sessionTTL = 7 * 24 * time.Hour

// Session is an active dashboard login.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions manages users and session tokens.
type Sessions struct {
	db      *sql.DB
	enabled bool
}

// NewSessions creates the session manager. With enabled false the
// middleware passes every request through.
func NewSessions(conn *sql.DB, enabled bool) *Sessions {
	return &Sessions{db: conn, enabled: enabled}
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken creates a secure random token.
func GenerateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Login verifies credentials and creates a session. Returns nil if the
// credentials are wrong.
func (s *Sessions) Login(username, password string) *Session {
	var userID int64
	var passwordHash string
	err := s.db.QueryRow(
		"SELECT id, password_hash FROM users WHERE username = ?",
		username).Scan(&userID, &passwordHash)
	if err != nil || !CheckPassword(passwordHash, password) {
		return nil
	}

	token := GenerateToken()
	expiresAt := time.Now().Add(sessionTTL)

	_, err = s.db.Exec(
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, db.TimeString(expiresAt))
	if err != nil {
		log.Printf("auth: create session: %v", err)
		return nil
	}

	return &Session{Token: token, UserID: userID, Username: username, ExpiresAt: expiresAt}
}

// Get retrieves a live session by token, or nil.
func (s *Sessions) Get(token string) *Session {
	if token == "" {
		return nil
	}

	var session Session
	var expiresAt string
	err := s.db.QueryRow(`
		SELECT s.token, s.user_id, u.username, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > datetime('now')
	`, token).Scan(&session.Token, &session.UserID, &session.Username, &expiresAt)
	if err != nil {
		return nil
	}

	session.ExpiresAt = db.ParseTime(expiresAt)
	return &session
}

// Delete removes a session.
func (s *Sessions) Delete(token string) {
	s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
}

// CleanupExpired removes expired sessions from the database.
func (s *Sessions) CleanupExpired() {
	s.db.Exec("DELETE FROM sessions WHERE expires_at < datetime('now')")
}

// CreateDefaultAdmin creates the initial admin user if none exists.
// Without ADMIN_PASS a random password is generated and logged once.
func (s *Sessions) CreateDefaultAdmin(username, password string) {
	var count int
	s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if count > 0 {
		return
	}

	if password == "" {
		password = GenerateToken()[:12]
		log.Printf("auth: generated admin password: %s", password)
		log.Printf("auth: set ADMIN_PASS to use a custom password")
	}

	hash, err := HashPassword(password)
	if err != nil {
		log.Printf("auth: hash admin password: %v", err)
		return
	}

	if _, err := s.db.Exec(
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, hash); err != nil {
		log.Printf("auth: could not create admin user: %v", err)
	} else {
		log.Printf("auth: created admin user: %s", username)
	}
}
