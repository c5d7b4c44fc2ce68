// Package middleware provides HTTP middleware for identity, request validation and
// request logging.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/validation"
)

// ValidateUUIDMiddleware validates that the uuid URL parameter is present and is a valid UUID.
// Returns 400 Bad Request with kind "validation" if the ID is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/{uuid}", func(r chi.Router) {
//	    r.Use(middleware.ValidateUUIDMiddleware)
//	    r.Get("/", handler.GetInvestment)
//	})
func ValidateUUIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "uuid")

		if id == "" {
			response.RespondAppError(w, r, fmt.Errorf("%w: id is required", apperrors.ErrInvalidUUID))
			return
		}

		if err := validation.ValidateUUID(id); err != nil {
			response.RespondAppError(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
