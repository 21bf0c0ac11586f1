package handlers

import (
	"net/http"
	"strconv"

	"mcmalerts/internal/audit"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	Recorder *audit.Recorder
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{Recorder: recorder}
}

// Query handles GET /api/audit.
// Query params: q (free text over title/user/details), action, limit.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Q:     r.URL.Query().Get("q"),
		Limit: 100,
	}

	if a := r.URL.Query().Get("action"); a != "" {
		action := audit.Action(a)
		if !audit.ValidAction(action) {
			JSONError(w, "Invalid action filter", http.StatusBadRequest)
			return
		}
		filter.Action = action
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			filter.Limit = l
		}
	}

	entries, err := h.Recorder.Query(r.Context(), filter)
	if err != nil {
		serviceError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	JSONResponse(w, entries)
}
