package handlers

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: invalid request body: %w", apperrors.ErrValidation, err)
	}
	return v, nil
}

// callerFrom returns the authenticated caller, writing 401 when the request has none.
func callerFrom(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.RespondAppError(w, r, apperrors.ErrUnauthenticated)
	}
	return caller, ok
}
