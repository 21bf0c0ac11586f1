package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"mcmalerts/internal/push"
)

// SubscriptionHandler manages push delivery targets.
type SubscriptionHandler struct {
	Registry    *push.Registry
	DeliveryLog *push.DeliveryLog
}

// NewSubscriptionHandler creates a subscription handler.
func NewSubscriptionHandler(registry *push.Registry, deliveryLog *push.DeliveryLog) *SubscriptionHandler {
	return &SubscriptionHandler{Registry: registry, DeliveryLog: deliveryLog}
}

// Register handles POST /api/push/subscriptions. Registration is open:
// a device calls it once when it opts in. Registering the same
// descriptor again is a no-op.
// Body: {"subscription_object": "<descriptor>"}.
func (h *SubscriptionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Descriptor string `json:"subscription_object"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Descriptor == "" {
		JSONError(w, "subscription_object is required", http.StatusBadRequest)
		return
	}

	sub, err := h.Registry.Register(r.Context(), req.Descriptor)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSONStatus(w, http.StatusCreated, sub)
}

// List handles GET /api/push/subscriptions.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Registry.ListAll(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	if subs == nil {
		subs = []push.Subscription{}
	}
	JSONResponse(w, subs)
}

// Remove handles DELETE /api/push/subscriptions/{id}.
func (h *SubscriptionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	if err := h.Registry.Remove(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deliveries handles GET /api/push/deliveries.
func (h *SubscriptionHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	deliveries, err := h.DeliveryLog.ListRecent(r.Context(), limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []push.DeliveryRecord{}
	}
	JSONResponse(w, deliveries)
}
