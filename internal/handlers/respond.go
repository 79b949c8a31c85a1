// Package handlers implements the JSON API: authentication, the field
// data-entry endpoints, and the admin review/management/export endpoints.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response", "error", err)
	}
}

// fail writes the standard failure envelope.
func fail(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

// ok writes the standard success envelope with a message.
func ok(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// serverError logs err and writes a generic 500 failure.
func serverError(w http.ResponseWriter, context string, err error) {
	slog.Error(context, "error", err)
	fail(w, http.StatusInternalServerError, "An unexpected error occurred")
}
