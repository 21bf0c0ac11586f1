// Package audit keeps the immutable trail of notification transitions.
// Entries are append-only: they are never mutated or deleted, and they
// outlive the notification they reference.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mcmalerts/internal/db"
)

// Action identifies the state transition an entry records.
type Action string

const (
	ActionCreated      Action = "created"
	ActionAcknowledged Action = "acknowledged"
	ActionResolved     Action = "resolved"
	ActionCommented    Action = "commented"
	ActionSnoozed      Action = "snoozed"
)

// ValidAction reports whether a is a known audit action.
func ValidAction(a Action) bool {
	switch a {
	case ActionCreated, ActionAcknowledged, ActionResolved, ActionCommented, ActionSnoozed:
		return true
	}
	return false
}

// Entry is one immutable audit record. NotificationTitle is a
// denormalized snapshot taken at write time, not a live lookup.
type Entry struct {
	ID                int64     `json:"id"`
	NotificationID    int64     `json:"notification_id"`
	NotificationTitle string    `json:"notification_title"`
	Action            Action    `json:"action"`
	User              string    `json:"user"`
	Timestamp         time.Time `json:"timestamp"`
	Details           string    `json:"details,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// execer is satisfied by *sql.DB and *sql.Tx, so an append can join a
// notification store transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Insert appends one entry. The timestamp defaults to now if zero.
// Exposed at package level so the notification store can call it
// inside its own transaction.
func Insert(ctx context.Context, q execer, e Entry) (Entry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO audit_logs (notification_id, notification_title, action, user, timestamp, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.NotificationID, e.NotificationTitle, string(e.Action), e.User,
		db.TimeString(e.Timestamp), nullString(e.Details))
	if err != nil {
		return Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("insert audit entry: last insert id: %w", err)
	}
	return e, nil
}

// Recorder appends and queries audit entries.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder over an initialized database.
func NewRecorder(conn *sql.DB) *Recorder {
	return &Recorder{db: conn}
}

// Record appends one entry outside any surrounding transaction.
func (r *Recorder) Record(ctx context.Context, e Entry) (Entry, error) {
	return Insert(ctx, r.db, e)
}

// Filter narrows a Query. Q matches case-insensitively against title,
// user and details; Action is an exact match.
type Filter struct {
	Q      string
	Action Action
	Limit  int
}

// Query returns entries sorted by timestamp descending.
func (r *Recorder) Query(ctx context.Context, f Filter) ([]Entry, error) {
	query := `
		SELECT id, notification_id, notification_title, action, user, timestamp, details, created_at
		FROM audit_logs`

	var where []string
	var args []interface{}
	if f.Q != "" {
		where = append(where, `(notification_title LIKE ? OR user LIKE ? OR details LIKE ?)`)
		pattern := "%" + f.Q + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// id breaks ties between entries written in the same second.
	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var notificationID sql.NullInt64
		var title, details sql.NullString
		var action, timestamp, createdAt string

		if err := rows.Scan(&e.ID, &notificationID, &title, &action, &e.User,
			&timestamp, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e.NotificationID = notificationID.Int64
		e.NotificationTitle = title.String
		e.Action = Action(action)
		e.Timestamp = db.ParseTime(timestamp)
		e.Details = details.String
		e.CreatedAt = db.ParseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
