package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"mcmalerts/internal/alerts"
	"mcmalerts/internal/push"
	"mcmalerts/internal/topics"
)

// JSONResponse sends a JSON response.
func JSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("handlers: failed to encode JSON response: %v", err)
	}
}

// JSONStatus sends a JSON response with an explicit status code.
func JSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("handlers: failed to encode JSON response: %v", err)
	}
}

// JSONError sends a JSON error response.
func JSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// parseID extracts a numeric path value.
func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// serviceError maps domain errors onto HTTP status codes.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case alerts.IsValidation(err):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, alerts.ErrNotFound),
		errors.Is(err, topics.ErrNotFound),
		errors.Is(err, push.ErrSubscriptionNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, alerts.ErrConflict):
		JSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("handlers: %v", err)
		JSONError(w, "Internal error", http.StatusInternalServerError)
	}
}
