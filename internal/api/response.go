package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// respondJSON writes a JSON response with the given status code and data.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// The header is already written, so an encoding failure cannot change the response.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError creates an ErrorResponse and sends it as JSON.
func respondError(w http.ResponseWriter, status int, message, detail string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Detail:  detail,
	})
}

// respondErrorWithField creates an ErrorResponse naming the offending field and sends it as JSON.
func respondErrorWithField(w http.ResponseWriter, status int, message, field string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Field:   field,
	})
}
