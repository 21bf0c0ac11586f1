package alerts

import "time"

// Type classifies the source of a notification.
type Type string

const (
	TypeSiteDown    Type = "site_down"
	TypeServerAlert Type = "server_alert"
	TypeCustom      Type = "custom"
)

// ValidType reports whether t is one of the accepted notification types.
func ValidType(t Type) bool {
	switch t {
	case TypeSiteDown, TypeServerAlert, TypeCustom:
		return true
	}
	return false
}

// Priority indicates the urgency of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is one of the accepted priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DefaultSite is stored when the sender omits the site field.
const DefaultSite = "N/A"

// Comment is one append-only operator comment on a notification.
type Comment struct {
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification is the unit of alerting. The id, type, title, message,
// site and timestamp never change after creation; the remaining fields
// are mutated only through the lifecycle operations.
type Notification struct {
	ID           int64     `json:"id"`
	Type         Type      `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Site         string    `json:"site"`
	Priority     Priority  `json:"priority"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	Resolved     bool      `json:"resolved"`
	SnoozedUntil time.Time `json:"snoozed_until,omitzero"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"created_at"`

	// version backs optimistic locking; not exposed over the API.
	version int64
}

// Status is the presentation-facing classification of a notification.
// It is computed, never stored.
type Status string

const (
	StatusNew          Status = "new"
	StatusAcknowledged Status = "acknowledged"
	StatusSnoozed      Status = "snoozed"
	StatusResolved     Status = "resolved"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusAcknowledged, StatusSnoozed, StatusResolved:
		return true
	}
	return false
}

// StatusAt computes the effective status of the notification at the
// given instant. Resolved wins over everything; an unexpired snooze
// wins over acknowledged. Filtering and statistics must use this
// rather than the raw flags so snooze expiry needs no background sweep.
func (n Notification) StatusAt(now time.Time) Status {
	if n.Resolved {
		return StatusResolved
	}
	if !n.SnoozedUntil.IsZero() && n.SnoozedUntil.After(now) {
		return StatusSnoozed
	}
	if n.Acknowledged {
		return StatusAcknowledged
	}
	return StatusNew
}
