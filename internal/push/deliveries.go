package push

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mcmalerts/internal/db"
)

// Delivery attempt outcomes.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// DeliveryRecord is one row of push delivery history.
type DeliveryRecord struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	SentAt         time.Time `json:"sent_at,omitzero"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeliveryLog records the outcome of every delivery attempt. It exists
// for observability only: nothing reads it to drive retries.
type DeliveryLog struct {
	db *sql.DB
}

// NewDeliveryLog creates a delivery log over an initialized database.
func NewDeliveryLog(conn *sql.DB) *DeliveryLog {
	return &DeliveryLog{db: conn}
}

// Record appends one delivery attempt.
func (l *DeliveryLog) Record(ctx context.Context, rec DeliveryRecord) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO push_deliveries (subscription_id, title, message, status, error_message, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SubscriptionID, rec.Title, rec.Message, rec.Status,
		nullIfEmpty(rec.ErrorMessage), db.NullTimeString(rec.SentAt))
	if err != nil {
		return 0, fmt.Errorf("record delivery: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns the newest delivery attempts, most recent first.
func (l *DeliveryLog) ListRecent(ctx context.Context, limit int) ([]DeliveryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, subscription_id, title, message, status, error_message, sent_at, created_at
		FROM push_deliveries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []DeliveryRecord
	for rows.Next() {
		var rec DeliveryRecord
		var errMsg, sentAt sql.NullString
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.SubscriptionID, &rec.Title, &rec.Message,
			&rec.Status, &errMsg, &sentAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}

		rec.ErrorMessage = errMsg.String
		rec.SentAt = db.ParseNullTime(sentAt)
		rec.CreatedAt = db.ParseTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
