package server

import (
	"encoding/json"
	"net/http"

	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondAppError maps an error onto the wire via its Kind: status from the
// taxonomy, message verbatim for classified errors, generic otherwise.
func respondAppError(w http.ResponseWriter, err error) {
	respondError(w, apperr.HTTPStatus(err), apperr.MessageOf(err))
}
