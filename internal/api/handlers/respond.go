package handlers

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error string   `json:"error"`
	Kinds []string `json:"kinds,omitempty"` // configuration error kinds
}
