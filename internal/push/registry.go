// Package push fans notification payloads out to registered delivery
// endpoints. Delivery is best-effort, at most once per endpoint per
// event: failures are recorded for observability but never retried and
// never surfaced to the caller that triggered the broadcast.
package push

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mcmalerts/internal/db"
	"time"
)

// ErrSubscriptionNotFound is returned when a subscription id does not exist.
var ErrSubscriptionNotFound = errors.New("push subscription not found")

// Subscription is one registered delivery target. Descriptor is the
// opaque transport address (a Shoutrrr service URL) the device or
// channel registered with.
type Subscription struct {
	ID         int64     `json:"id"`
	Descriptor string    `json:"subscription_object"`
	CreatedAt  time.Time `json:"created_at"`
}

// Registry is deduplicated storage of push endpoints.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a registry over an initialized database.
func NewRegistry(conn *sql.DB) *Registry {
	return &Registry{db: conn}
}

// Register upserts a delivery target keyed by its descriptor.
// Registering the same descriptor twice returns the existing row
// instead of creating a duplicate delivery target.
func (r *Registry) Register(ctx context.Context, descriptor string) (Subscription, error) {
	if descriptor == "" {
		return Subscription{}, fmt.Errorf("register subscription: empty descriptor")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (subscription_object) VALUES (?)
		ON CONFLICT(subscription_object) DO NOTHING`, descriptor)
	if err != nil {
		return Subscription{}, fmt.Errorf("register subscription: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, subscription_object, created_at
		FROM push_subscriptions WHERE subscription_object = ?`, descriptor)
	return scanSubscription(row)
}

// ListAll returns every registered delivery target.
func (r *Registry) ListAll(ctx context.Context) ([]Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subscription_object, created_at
		FROM push_subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Remove deletes a delivery target. Its delivery history is kept.
func (r *Registry) Remove(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove subscription: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("remove subscription %d: %w", id, ErrSubscriptionNotFound)
	}
	return nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(s scannable) (Subscription, error) {
	var sub Subscription
	var createdAt string
	if err := s.Scan(&sub.ID, &sub.Descriptor, &createdAt); err != nil {
		return sub, fmt.Errorf("scan subscription: %w", err)
	}
	sub.CreatedAt = db.ParseTime(createdAt)
	return sub, nil
}
