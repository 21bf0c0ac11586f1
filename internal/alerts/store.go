package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mcmalerts/internal/db"
)

// maxUpdateRetries bounds how often an update is retried after losing
// the optimistic-locking race before ErrConflict is surfaced.
const maxUpdateRetries = 3

// Store provides durable, queryable storage for notifications with
// per-record update serialization via optimistic versioning.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an initialized database.
func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}

// Fields is the caller-supplied part of a new notification.
// Defaults are applied by Create.
type Fields struct {
	Type      Type
	Title     string
	Message   string
	Site      string
	Priority  Priority
	Timestamp time.Time
}

// Create inserts a new notification with defaults applied and all
// mutable state at initial values. The optional then callback runs in
// the same transaction as the insert; if it fails nothing is committed.
func (s *Store) Create(ctx context.Context, f Fields, then func(tx *sql.Tx, n Notification) error) (Notification, error) {
	if f.Site == "" {
		f.Site = DefaultSite
	}
	if f.Priority == "" {
		f.Priority = PriorityLow
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (type, title, message, site, priority, timestamp, comments)
		VALUES (?, ?, ?, ?, ?, ?, '[]')`,
		string(f.Type), f.Title, f.Message, f.Site, string(f.Priority),
		db.TimeString(f.Timestamp))
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: last insert id: %w", err)
	}

	n, err := getTx(ctx, tx, id)
	if err != nil {
		return Notification{}, err
	}

	if then != nil {
		if err := then(tx, n); err != nil {
			return Notification{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Notification{}, fmt.Errorf("create notification: commit: %w", err)
	}
	return n, nil
}

// Get retrieves a notification by id.
func (s *Store) Get(ctx context.Context, id int64) (Notification, error) {
	return getTx(ctx, s.db, id)
}

// Update applies mutate to the current record under optimistic locking.
// Two concurrent updates on the same id never silently overwrite each
// other's fields: the loser of the version race re-reads and retries,
// up to maxUpdateRetries, then fails with ErrConflict. The optional
// then callback runs in the winning transaction.
func (s *Store) Update(ctx context.Context, id int64, mutate func(n *Notification), then func(tx *sql.Tx, n Notification) error) (Notification, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		n, err := s.tryUpdate(ctx, id, mutate, then)
		if err == errVersionRace {
			continue
		}
		return n, err
	}
	return Notification{}, fmt.Errorf("update notification %d: %w", id, ErrConflict)
}

// errVersionRace signals internally that the version check failed and
// the update should be retried.
var errVersionRace = fmt.Errorf("version race")

func (s *Store) tryUpdate(ctx context.Context, id int64, mutate func(n *Notification), then func(tx *sql.Tx, n Notification) error) (Notification, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Notification{}, fmt.Errorf("update notification: begin: %w", err)
	}
	defer tx.Rollback()

	n, err := getTx(ctx, tx, id)
	if err != nil {
		return Notification{}, err
	}

	mutate(&n)

	comments, err := json.Marshal(n.Comments)
	if err != nil {
		return Notification{}, fmt.Errorf("update notification: marshal comments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE notifications SET
			priority = ?, acknowledged = ?, resolved = ?,
			snoozed_until = ?, comments = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(n.Priority),
		db.BoolToInt(n.Acknowledged), db.BoolToInt(n.Resolved),
		db.NullTimeString(n.SnoozedUntil), string(comments),
		id, n.version)
	if err != nil {
		return Notification{}, fmt.Errorf("update notification: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Notification{}, fmt.Errorf("update notification: rows affected: %w", err)
	}
	if affected == 0 {
		return Notification{}, errVersionRace
	}
	n.version++

	if then != nil {
		if err := then(tx, n); err != nil {
			return Notification{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Notification{}, fmt.Errorf("update notification: commit: %w", err)
	}
	return n, nil
}

// Filter narrows a List query. Zero values mean "no constraint".
type Filter struct {
	Status Status    // effective status at query time
	Type   Type      // exact match
	Since  time.Time // timestamp >= Since
	Until  time.Time // timestamp <= Until
	Limit  int
}

// List returns notifications newest-timestamp-first. The status filter
// is evaluated against the effective status at call time, so snooze
// expiry is reflected without any background sweep.
func (s *Store) List(ctx context.Context, f Filter) ([]Notification, error) {
	query := `
		SELECT id, type, title, message, site, priority, timestamp,
		       acknowledged, resolved, snoozed_until, comments, version, created_at
		FROM notifications`

	var where []string
	var args []interface{}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, db.TimeString(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, db.TimeString(f.Until))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"

	// The status filter is computed in Go, so the SQL limit can only be
	// pushed down when no status filter applies.
	if f.Limit > 0 && f.Status == "" {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		if f.Status != "" && n.StatusAt(now) != f.Status {
			continue
		}
		out = append(out, n)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getTx(ctx context.Context, q queryer, id int64) (Notification, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, type, title, message, site, priority, timestamp,
		       acknowledged, resolved, snoozed_until, comments, version, created_at
		FROM notifications WHERE id = ?`, id)

	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return Notification{}, fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Notification{}, err
	}
	return n, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanNotification(s scannable) (Notification, error) {
	var n Notification
	var typ, priority, timestamp, createdAt, comments string
	var acknowledged, resolved int
	var snoozedUntil sql.NullString

	err := s.Scan(&n.ID, &typ, &n.Title, &n.Message, &n.Site, &priority,
		&timestamp, &acknowledged, &resolved, &snoozedUntil, &comments,
		&n.version, &createdAt)
	if err == sql.ErrNoRows {
		return n, err
	}
	if err != nil {
		return n, fmt.Errorf("scan notification: %w", err)
	}

	n.Type = Type(typ)
	n.Priority = Priority(priority)
	n.Timestamp = db.ParseTime(timestamp)
	n.Acknowledged = db.IntToBool(acknowledged)
	n.Resolved = db.IntToBool(resolved)
	n.SnoozedUntil = db.ParseNullTime(snoozedUntil)
	n.CreatedAt = db.ParseTime(createdAt)
	if err := json.Unmarshal([]byte(comments), &n.Comments); err != nil {
		return n, fmt.Errorf("scan notification: comments: %w", err)
	}
	if n.Comments == nil {
		n.Comments = []Comment{}
	}
	return n, nil
}
