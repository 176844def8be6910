package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/sync-hub/internal/device"
	"github.com/nerrad567/sync-hub/internal/module"
	"github.com/nerrad567/sync-hub/internal/registration"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInternal     = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeRegistrationError maps linking protocol failures to wire responses.
//
// Client mistakes (bad combination of credentials and share code,
// duplicate device id) are 400s. A share code that cannot be resolved or
// belongs to a different account is a 403, and the response deliberately
// does not distinguish "never existed", "expired", and "already spent".
// Races and vanished accounts are server-side faults.
func writeRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registration.ErrDeviceRegistered):
		writeBadRequest(w, "Device is already registered")
	case errors.Is(err, registration.ErrCredentialsWithoutShare):
		writeBadRequest(w, "ShareCode required if credentials are provided")
	case errors.Is(err, registration.ErrCredentialsRequired):
		writeBadRequest(w, "Account is missing")
	case errors.Is(err, registration.ErrInvalidShare):
		writeForbidden(w, "Invalid ShareCode")
	case errors.Is(err, registration.ErrShareRace):
		writeInternalError(w, "ShareCode was already consumed")
	case errors.Is(err, registration.ErrAccountVanished):
		writeInternalError(w, "Account no longer exists")
	default:
		writeInternalError(w, "Account creation failed")
	}
}

// writeModuleError maps module repository failures to wire responses.
func writeModuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, module.ErrInvalidID):
		writeBadRequest(w, "Invalid moduleId")
	case errors.Is(err, device.ErrNotFound):
		writeNotFound(w, "Target device not found")
	default:
		writeInternalError(w, "Request failed")
	}
}
