package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mcmalerts/internal/alerts"
)

// IngestHandler accepts alert events from external monitoring senders.
// The endpoint is intentionally unauthenticated.
type IngestHandler struct {
	Service *alerts.Service
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(service *alerts.Service) *IngestHandler {
	return &IngestHandler{Service: service}
}

type ingestRequest struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Priority  string `json:"priority"`
	Site      string `json:"site"`
	Timestamp string `json:"timestamp"`
}

// Ingest handles POST /api/ingest. Responds 201 with the created
// notification, 400 on missing required fields, 500 on storage failure.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			JSONError(w, "timestamp must be RFC3339", http.StatusBadRequest)
			return
		}
		ts = parsed
	}

	n, err := h.Service.Ingest(r.Context(), alerts.IngestRequest{
		Type:      alerts.Type(req.Type),
		Title:     req.Title,
		Message:   req.Message,
		Priority:  alerts.Priority(req.Priority),
		Site:      req.Site,
		Timestamp: ts,
	})
	if err != nil {
		serviceError(w, err)
		return
	}

	JSONStatus(w, http.StatusCreated, n)
}
