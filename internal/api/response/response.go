// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
)

// ErrorResponse represents a structured error response returned by the API.
// Kind is the stable machine-readable error class; Details is optional context.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    apperrors.Kind `json:"kind,omitempty"`
	Details any            `json:"details,omitempty"`
}

// fieldErrors is implemented by validation errors that carry per-field messages.
type fieldErrors interface {
	FieldErrors() map[string]string
}

// RespondJSON sends a JSON response with the given status code.
// Sets the Content-Type header to application/json and writes the status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logging.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RespondAppError maps a ledger error to its HTTP status and kind and writes it.
// Unclassified errors are logged and answered with a generic 500 so internals
// never leak to clients.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)

	if kind == apperrors.KindInternal || kind == apperrors.KindInventoryCorruption {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Str("kind", string(kind)).
			Msg("request failed")
		RespondJSON(w, status, ErrorResponse{Error: "internal server error", Kind: kind})
		return
	}

	var details any
	var fe fieldErrors
	if errors.As(err, &fe) {
		details = fe.FieldErrors()
	}

	RespondJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Kind:    kind,
		Details: details,
	})
}
