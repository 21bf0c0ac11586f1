package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open initializes the database connection and schema.
func Open(path string) (*sql.DB, error) {
	if err := ensureDirectory(path); err != nil {
		return nil, err
	}

	// Immediate transactions take the write lock at BeginTx, so
	// concurrent read-modify-write updates queue instead of failing
	// with a busy snapshot.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_txlock=immediate", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	enableWAL(conn)
	if err := CreateSchema(conn); err != nil {
		return nil, err
	}
	migrateSchema(conn)
	return conn, nil
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}

func enableWAL(conn *sql.DB) {
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("db: could not enable WAL mode: %v", err)
	}
}

// CreateSchema creates all tables. Exported so tests can build
// in-memory databases with the production schema.
func CreateSchema(conn *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		site TEXT NOT NULL DEFAULT 'N/A',
		priority TEXT NOT NULL DEFAULT 'low',
		timestamp DATETIME NOT NULL,
		acknowledged INTEGER NOT NULL DEFAULT 0,
		resolved INTEGER NOT NULL DEFAULT 0,
		snoozed_until DATETIME,
		comments JSON NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_timestamp ON notifications(timestamp);
	CREATE INDEX IF NOT EXISTS idx_notifications_type ON notifications(type);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		notification_id INTEGER,
		notification_title TEXT,
		action TEXT NOT NULL,
		user TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		details TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);

	CREATE TABLE IF NOT EXISTS push_subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subscription_object TEXT UNIQUE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS push_deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subscription_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		sent_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_push_deliveries_subscription ON push_deliveries(subscription_id);

	CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		subscribed INTEGER NOT NULL DEFAULT 1,
		endpoint TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func migrateSchema(conn *sql.DB) {
	// Add version column to databases created before optimistic locking
	conn.Exec("ALTER TABLE notifications ADD COLUMN version INTEGER NOT NULL DEFAULT 1")
}
