package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mcmalerts/internal/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "secret123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestLoginAndGet(t *testing.T) {
	sessions := NewSessions(setupTestDB(t), true)
	sessions.CreateDefaultAdmin("admin", "hunter2")

	if s := sessions.Login("admin", "wrong"); s != nil {
		t.Error("login with wrong password must fail")
	}
	if s := sessions.Login("nobody", "hunter2"); s != nil {
		t.Error("login with unknown user must fail")
	}

	session := sessions.Login("admin", "hunter2")
	if session == nil {
		t.Fatal("login with correct credentials failed")
	}
	if session.Username != "admin" || session.Token == "" {
		t.Errorf("unexpected session: %+v", session)
	}

	got := sessions.Get(session.Token)
	if got == nil || got.Username != "admin" {
		t.Errorf("Get(token) = %+v", got)
	}

	sessions.Delete(session.Token)
	if sessions.Get(session.Token) != nil {
		t.Error("session survived deletion")
	}
}

func TestCreateDefaultAdminOnlyOnce(t *testing.T) {
	conn := setupTestDB(t)
	sessions := NewSessions(conn, true)

	sessions.CreateDefaultAdmin("admin", "first")
	sessions.CreateDefaultAdmin("other", "second")

	var count int
	conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
	if sessions.Login("other", "second") != nil {
		t.Error("second admin must not be created")
	}
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	sessions := NewSessions(setupTestDB(t), false)

	called := false
	handler := sessions.Middleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/api/notifications", nil))
	if !called {
		t.Error("disabled middleware must pass requests through")
	}
}

func TestMiddlewareRejectsMissingSession(t *testing.T) {
	sessions := NewSessions(setupTestDB(t), true)

	handler := sessions.Middleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/api/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareAcceptsCookieAndBearer(t *testing.T) {
	sessions := NewSessions(setupTestDB(t), true)
	sessions.CreateDefaultAdmin("admin", "hunter2")
	session := sessions.Login("admin", "hunter2")
	if session == nil {
		t.Fatal("login failed")
	}

	var gotUser string
	handler := sessions.Middleware(func(w http.ResponseWriter, r *http.Request) {
		if s := FromContext(r); s != nil {
			gotUser = s.Username
		}
	})

	req := httptest.NewRequest("GET", "/api/notifications", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: session.Token})
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK || gotUser != "admin" {
		t.Errorf("cookie auth: status %d, user %q", rec.Code, gotUser)
	}

	gotUser = ""
	req = httptest.NewRequest("GET", "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK || gotUser != "admin" {
		t.Errorf("bearer auth: status %d, user %q", rec.Code, gotUser)
	}
}

func TestCleanupExpired(t *testing.T) {
	conn := setupTestDB(t)
	sessions := NewSessions(conn, true)
	sessions.CreateDefaultAdmin("admin", "hunter2")
	session := sessions.Login("admin", "hunter2")

	conn.Exec("UPDATE sessions SET expires_at = datetime('now', '-1 hour') WHERE token = ?",
		session.Token)

	if sessions.Get(session.Token) != nil {
		t.Error("expired session must not resolve")
	}

	sessions.CleanupExpired()
	var count int
	conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	if count != 0 {
		t.Errorf("expected 0 sessions after cleanup, got %d", count)
	}
}
