package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "ADMIN_USER", "ADMIN_PASS",
		"AUTH_ENABLED", "PUBLIC_BASE_URL", "PUSH_TIMEOUT_SECS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.Port != "9080" {
		t.Errorf("Port = %q, want 9080", cfg.Port)
	}
	if cfg.DBPath != "mcmalerts.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if !cfg.AuthEnabled {
		t.Error("AuthEnabled should default to true")
	}
	if cfg.PushTimeout != 10*time.Second {
		t.Errorf("PushTimeout = %s", cfg.PushTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8000")
	t.Setenv("DB_PATH", "/tmp/alerts.db")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("PUSH_TIMEOUT_SECS", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://alerts.example.com")

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBPath != "/tmp/alerts.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.AuthEnabled {
		t.Error("AuthEnabled should be false")
	}
	if cfg.PushTimeout != 3*time.Second {
		t.Errorf("PushTimeout = %s", cfg.PushTimeout)
	}
	if cfg.PublicBaseURL != "https://alerts.example.com" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("PUSH_TIMEOUT_SECS", "soon")
	cfg := Load()
	if cfg.PushTimeout != 10*time.Second {
		t.Errorf("PushTimeout = %s, want default 10s", cfg.PushTimeout)
	}
}
