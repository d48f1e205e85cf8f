package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Conflicts
// (lost races, replays, overbooking) all answer 409 with a distinct code so
// clients can tell "fully booked" from "already completed".
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, domain.ErrNoInventory):
		status, code = http.StatusConflict, "NO_INVENTORY"
	case errors.Is(err, domain.ErrInvalidState):
		status, code = http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrCapacityExceeded):
		status, code = http.StatusConflict, "CAPACITY_EXCEEDED"
	case errors.Is(err, domain.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "PERSISTENCE_TIMEOUT"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
		logger.Error("Unhandled error in request", "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
