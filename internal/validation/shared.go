package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
)

// Error collects field-level validation failures keyed by the JSON field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers classify the error with errors.Is(err, apperrors.ErrValidation).
func (e *Error) Unwrap() error {
	return apperrors.ErrValidation
}

// FieldErrors returns the per-field messages.
func (e *Error) FieldErrors() map[string]string {
	return e.Fields
}
