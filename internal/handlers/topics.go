package handlers

import (
	"encoding/json"
	"net/http"

	"mcmalerts/internal/topics"
)

// TopicHandler manages topic bookkeeping for the dashboard.
type TopicHandler struct {
	Store *topics.Store
}

// NewTopicHandler creates a topic handler.
func NewTopicHandler(store *topics.Store) *TopicHandler {
	return &TopicHandler{Store: store}
}

// List handles GET /api/topics.
func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	if all == nil {
		all = []topics.Topic{}
	}
	JSONResponse(w, all)
}

// Create handles POST /api/topics.
// Body: {"name": "...", "description": "..."}.
func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		JSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	t, err := h.Store.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSONStatus(w, http.StatusCreated, t)
}

// Toggle handles POST /api/topics/{id}/toggle.
func (h *TopicHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		JSONError(w, "Invalid topic ID", http.StatusBadRequest)
		return
	}

	t, err := h.Store.Toggle(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSONResponse(w, t)
}
