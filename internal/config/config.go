package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration.
type Config struct {
	Port          string
	DBPath        string
	AdminUser     string
	AdminPass     string
	AuthEnabled   bool
	PublicBaseURL string
	PushTimeout   time.Duration
}

// Load returns the server configuration from environment variables.
func Load() Config {
	return Config{
		Port:          getEnv("PORT", "9080"),
		DBPath:        getEnv("DB_PATH", "mcmalerts.db"),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPass:     getEnv("ADMIN_PASS", ""),
		AuthEnabled:   getEnv("AUTH_ENABLED", "true") == "true",
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:9080"),
		PushTimeout:   time.Duration(getEnvInt("PUSH_TIMEOUT_SECS", 10)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
