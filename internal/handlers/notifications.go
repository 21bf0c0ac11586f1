package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mcmalerts/internal/alerts"
	"mcmalerts/internal/auth"
)

// NotificationHandler serves the dashboard's notification API.
type NotificationHandler struct {
	Service *alerts.Service
	Store   *alerts.Store
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(service *alerts.Service, store *alerts.Store) *NotificationHandler {
	return &NotificationHandler{Service: service, Store: store}
}

// notificationView decorates a record with its effective status.
type notificationView struct {
	alerts.Notification
	Status alerts.Status `json:"status"`
}

func view(n alerts.Notification, now time.Time) notificationView {
	return notificationView{Notification: n, Status: n.StatusAt(now)}
}

// List handles GET /api/notifications.
// Query params: status, type, since, until, limit.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := alerts.Filter{Limit: 100}

	if s := r.URL.Query().Get("status"); s != "" {
		status := alerts.Status(s)
		if !alerts.ValidStatus(status) {
			JSONError(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = alerts.Type(t)
	}
	if since := r.URL.Query().Get("since"); since != "" {
		if ts, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = ts
		}
	}
	if until := r.URL.Query().Get("until"); until != "" {
		if ts, err := time.Parse(time.RFC3339, until); err == nil {
			filter.Until = ts
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			filter.Limit = l
		}
	}

	notifications, err := h.Store.List(r.Context(), filter)
	if err != nil {
		serviceError(w, err)
		return
	}

	now := time.Now()
	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, view(n, now))
	}
	JSONResponse(w, views)
}

// Get handles GET /api/notifications/{id}.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	n, err := h.Store.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSONResponse(w, view(n, time.Now()))
}

// Acknowledge handles POST /api/notifications/{id}/ack.
func (h *NotificationHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id int64, user string) (alerts.Notification, error) {
		return h.Service.Acknowledge(r.Context(), id, user)
	})
}

// Resolve handles POST /api/notifications/{id}/resolve.
func (h *NotificationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id int64, user string) (alerts.Notification, error) {
		return h.Service.Resolve(r.Context(), id, user)
	})
}

// Snooze handles POST /api/notifications/{id}/snooze.
// Body: {"until": "<RFC3339>"}.
func (h *NotificationHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Until string `json:"until"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	until, err := time.Parse(time.RFC3339, req.Until)
	if err != nil {
		JSONError(w, "until must be RFC3339", http.StatusBadRequest)
		return
	}

	h.lifecycle(w, r, func(id int64, user string) (alerts.Notification, error) {
		return h.Service.Snooze(r.Context(), id, until, user)
	})
}

// AddComment handles POST /api/notifications/{id}/comments.
// Body: {"text": "..."}.
func (h *NotificationHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	h.lifecycle(w, r, func(id int64, user string) (alerts.Notification, error) {
		return h.Service.AddComment(r.Context(), id, user, req.Text)
	})
}

// Stats handles GET /api/notifications/stats: counts per effective status.
func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Store.List(r.Context(), alerts.Filter{})
	if err != nil {
		serviceError(w, err)
		return
	}

	now := time.Now()
	counts := map[alerts.Status]int{
		alerts.StatusNew:          0,
		alerts.StatusAcknowledged: 0,
		alerts.StatusSnoozed:      0,
		alerts.StatusResolved:     0,
	}
	for _, n := range notifications {
		counts[n.StatusAt(now)]++
	}

	JSONResponse(w, map[string]interface{}{
		"total":  len(notifications),
		"counts": counts,
	})
}

// lifecycle runs one transition and writes the updated record.
func (h *NotificationHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(id int64, user string) (alerts.Notification, error)) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	var user string
	if session := auth.FromContext(r); session != nil {
		user = session.Username
	}

	n, err := op(id, user)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSONResponse(w, view(n, time.Now()))
}
