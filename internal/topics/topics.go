// Package topics keeps the named groupings viewers can subscribe to.
// Topics are bookkeeping surfaced to the dashboard only; they do not
// gate push delivery.
package topics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"mcmalerts/internal/db"
)

// ErrNotFound is returned when a topic id does not exist.
var ErrNotFound = errors.New("topic not found")

// Topic is one named grouping.
type Topic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Subscribed  bool      `json:"subscribed"`
	Endpoint    string    `json:"endpoint"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists topics.
type Store struct {
	db      *sql.DB
	baseURL string
}

// NewStore creates a topic store. baseURL is the public site address
// used to derive each topic's endpoint.
func NewStore(conn *sql.DB, baseURL string) *Store {
	return &Store{db: conn, baseURL: strings.TrimRight(baseURL, "/")}
}

// Create inserts a new topic, subscribed by default, with an endpoint
// derived from the topic name.
func (s *Store) Create(ctx context.Context, name, description string) (Topic, error) {
	if name == "" {
		return Topic{}, fmt.Errorf("create topic: name is required")
	}

	t := Topic{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Subscribed:  true,
		Endpoint:    fmt.Sprintf("%s/api/notifications/%s", s.baseURL, slug(name)),
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topics (id, name, description, subscribed, endpoint)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, nullIfEmpty(t.Description), db.BoolToInt(t.Subscribed), t.Endpoint)
	if err != nil {
		return Topic{}, fmt.Errorf("create topic: %w", err)
	}
	return t, nil
}

// List returns all topics ordered by name.
func (s *Store) List(ctx context.Context) ([]Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, subscribed, endpoint, created_at
		FROM topics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		var t Topic
		var description sql.NullString
		var subscribed int
		var createdAt string

		if err := rows.Scan(&t.ID, &t.Name, &description, &subscribed,
			&t.Endpoint, &createdAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}

		t.Description = description.String
		t.Subscribed = db.IntToBool(subscribed)
		t.CreatedAt = db.ParseTime(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Toggle flips the subscribed flag and returns the updated topic.
func (s *Store) Toggle(ctx context.Context, id string) (Topic, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE topics SET subscribed = 1 - subscribed WHERE id = ?`, id)
	if err != nil {
		return Topic{}, fmt.Errorf("toggle topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Topic{}, fmt.Errorf("toggle topic: rows affected: %w", err)
	}
	if n == 0 {
		return Topic{}, fmt.Errorf("toggle topic %s: %w", id, ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, subscribed, endpoint, created_at
		FROM topics WHERE id = ?`, id)

	var t Topic
	var description sql.NullString
	var subscribed int
	var createdAt string
	if err := row.Scan(&t.ID, &t.Name, &description, &subscribed,
		&t.Endpoint, &createdAt); err != nil {
		return Topic{}, fmt.Errorf("toggle topic: reread: %w", err)
	}
	t.Description = description.String
	t.Subscribed = db.IntToBool(subscribed)
	t.CreatedAt = db.ParseTime(createdAt)
	return t, nil
}

// slug lowercases the name and replaces whitespace runs with dashes.
func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
