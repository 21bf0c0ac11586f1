package db

import (
	"database/sql"
	"time"
)

// TimeFormat is the layout used for all DATETIME columns.
const TimeFormat = "2006-01-02 15:04:05"

// ParseTime parses a stored time string, returning the zero time on failure.
func ParseTime(s string) time.Time {
	t, _ := time.Parse(TimeFormat, s)
	return t.UTC()
}

// ParseNullTime parses a nullable time string from SQLite.
func ParseNullTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	return ParseTime(ns.String)
}

// NullTimeString converts a time to a nullable string for SQLite storage.
func NullTimeString(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(TimeFormat)
}

// TimeString converts a time to string, using current time if zero.
func TimeString(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(TimeFormat)
}

// BoolToInt converts a bool to int for SQLite storage.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IntToBool converts an int to bool from SQLite storage.
func IntToBool(i int) bool {
	return i == 1
}
