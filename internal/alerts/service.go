package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"mcmalerts/internal/audit"
	"mcmalerts/internal/push"
)

// SystemUser is recorded on audit entries produced by ingest, where no
// human actor exists.
const SystemUser = "System"

// DefaultActor is recorded when a dashboard operation carries no user.
const DefaultActor = "Admin"

// DashboardURL is the target opened when a delivered push is tapped.
const DashboardURL = "/dashboard"

// FeedPublisher broadcasts inserts and updates to live viewers.
// Satisfied by *feed.Hub.
type FeedPublisher interface {
	PublishInsert(n Notification)
	PublishUpdate(n Notification)
}

// PushBroadcaster fans a payload out to all registered endpoints.
// Satisfied by *push.Broadcaster.
type PushBroadcaster interface {
	Broadcast(ctx context.Context, p push.Payload)
}

// Service runs the notification pipeline: validate, persist, audit,
// publish to the change feed, and fan out to push endpoints.
type Service struct {
	store *Store
	feed  FeedPublisher
	push  PushBroadcaster

	// wg tracks detached push tasks so shutdown and tests can wait
	// for them to settle.
	wg sync.WaitGroup
}

// NewService wires the pipeline together.
func NewService(store *Store, feed FeedPublisher, broadcaster PushBroadcaster) *Service {
	return &Service{store: store, feed: feed, push: broadcaster}
}

// IngestRequest is the externally supplied part of a new notification.
type IngestRequest struct {
	Type      Type
	Title     string
	Message   string
	Priority  Priority
	Site      string
	Timestamp time.Time
}

func (r IngestRequest) validate() error {
	if r.Type == "" {
		return &ValidationError{Field: "type", Reason: "required"}
	}
	if !ValidType(r.Type) {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", r.Type)}
	}
	if r.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if r.Message == "" {
		return &ValidationError{Field: "message", Reason: "required"}
	}
	if r.Priority != "" && !ValidPriority(r.Priority) {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", r.Priority)}
	}
	return nil
}

// Ingest creates a notification from an external alert event. The
// record and its "created" audit entry are committed together before
// Ingest returns; the change-feed broadcast happens synchronously and
// push fan-out is handed to a detached task whose outcome is logged,
// never surfaced. A failed broadcast cannot fail the ingest.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (Notification, error) {
	if err := req.validate(); err != nil {
		return Notification{}, err
	}

	n, err := s.store.Create(ctx, Fields{
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Site:      req.Site,
		Priority:  req.Priority,
		Timestamp: req.Timestamp,
	}, func(tx *sql.Tx, n Notification) error {
		_, err := audit.Insert(ctx, tx, audit.Entry{
			NotificationID:    n.ID,
			NotificationTitle: n.Title,
			Action:            audit.ActionCreated,
			User:              SystemUser,
			Details:           fmt.Sprintf("%s alert for %s", n.Type, n.Site),
		})
		return err
	})
	if err != nil {
		return Notification{}, err
	}

	s.feed.PublishInsert(n)

	// Detached so a slow or failing endpoint can never block or fail
	// the sender's response. Background context: the attempt must
	// outlive the ingest request.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.push.Broadcast(context.Background(), push.Payload{
			Title:   n.Title,
			Message: n.Message,
			URL:     DashboardURL,
		})
	}()

	return n, nil
}

// Acknowledge marks the notification as seen by an operator. Reapplying
// it changes nothing on the record but still appends an audit entry;
// repeated operator action is worth recording.
func (s *Service) Acknowledge(ctx context.Context, id int64, user string) (Notification, error) {
	return s.transition(ctx, id, audit.ActionAcknowledged, actor(user), "",
		func(n *Notification) {
			n.Acknowledged = true
		})
}

// Resolve closes out the notification. Acknowledged is set in the same
// write so a resolved record can never be unacknowledged.
func (s *Service) Resolve(ctx context.Context, id int64, user string) (Notification, error) {
	return s.transition(ctx, id, audit.ActionResolved, actor(user), "",
		func(n *Notification) {
			n.Resolved = true
			n.Acknowledged = true
		})
}

// Snooze hides the notification from active views until the given
// time. Past timestamps are rejected; a snooze that is already over
// would silently mean nothing.
func (s *Service) Snooze(ctx context.Context, id int64, until time.Time, user string) (Notification, error) {
	if until.IsZero() {
		return Notification{}, &ValidationError{Field: "until", Reason: "required"}
	}
	if !until.After(time.Now()) {
		return Notification{}, &ValidationError{Field: "until", Reason: "must be in the future"}
	}
	details := fmt.Sprintf("snoozed until %s", until.UTC().Format(time.RFC3339))
	return s.transition(ctx, id, audit.ActionSnoozed, actor(user), details,
		func(n *Notification) {
			n.SnoozedUntil = until.UTC()
		})
}

// AddComment appends an operator comment. Comments are append-only and
// never reordered.
func (s *Service) AddComment(ctx context.Context, id int64, user, text string) (Notification, error) {
	if text == "" {
		return Notification{}, &ValidationError{Field: "text", Reason: "required"}
	}
	user = actor(user)
	return s.transition(ctx, id, audit.ActionCommented, user, text,
		func(n *Notification) {
			n.Comments = append(n.Comments, Comment{
				User:      user,
				Text:      text,
				Timestamp: time.Now().UTC(),
			})
		})
}

// transition applies one lifecycle mutation: store update and audit
// entry commit atomically, then exactly one change-feed broadcast.
// Push fan-out is not re-invoked for lifecycle transitions.
func (s *Service) transition(ctx context.Context, id int64, action audit.Action, user, details string, mutate func(n *Notification)) (Notification, error) {
	n, err := s.store.Update(ctx, id, mutate, func(tx *sql.Tx, n Notification) error {
		_, err := audit.Insert(ctx, tx, audit.Entry{
			NotificationID:    n.ID,
			NotificationTitle: n.Title,
			Action:            action,
			User:              user,
			Details:           details,
		})
		return err
	})
	if err != nil {
		return Notification{}, err
	}

	s.feed.PublishUpdate(n)
	return n, nil
}

// Close waits for all detached push tasks to settle. Call on shutdown;
// tests use it to observe fan-out completion.
func (s *Service) Close() {
	s.wg.Wait()
}

func actor(user string) string {
	if user == "" {
		return DefaultActor
	}
	return user
}
