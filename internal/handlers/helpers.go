package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/todoforge/todoforge/internal/database"
	"github.com/todoforge/todoforge/internal/validation"
)

// respondJSON sends a success JSON envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON envelope
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorFields(w, status, errorType, message, nil)
}

// respondValidationError sends a 400 with per-field validation messages
func respondValidationError(w http.ResponseWriter, err error) {
	respondJSONErrorFields(w, http.StatusBadRequest, "Validation Error", "Request validation failed", validation.FieldErrors(err))
}

// respondStoreError maps repository errors onto the client-facing
// taxonomy: not-found and conflict are client errors, everything else is
// an opaque server error.
func respondStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", fallback+" not found")
	case errors.Is(err, database.ErrDuplicateEmail):
		respondJSONError(w, http.StatusConflict, "Conflict", "Email already registered")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

func respondJSONErrorFields(w http.ResponseWriter, status int, errorType, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Truncate long messages so internal detail never leaks to clients
	if len(message) > 200 {
		message = message[:200] + "..."
	}

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(fields) > 0 {
		response["fields"] = fields
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
