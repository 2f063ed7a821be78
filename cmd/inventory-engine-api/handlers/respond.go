// Package handlers provides HTTP handlers for the Inventory Engine API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

// ErrorResponseDTO is the body of every non-2xx response.
type ErrorResponseDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, ErrorResponseDTO{
		Error:   http.StatusText(status),
		Message: message,
		Detail:  detail,
	})
}

// StatusFor maps an engine error to an HTTP status.
func StatusFor(err error) int {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Type {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeCatalog:
		return http.StatusServiceUnavailable
	case domain.ErrorTypeDelegation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
