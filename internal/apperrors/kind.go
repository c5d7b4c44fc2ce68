package apperrors

import (
	"errors"
	"net/http"
)

// Kind is the stable, machine-readable class of a ledger error.
type Kind string

// Error kinds returned to clients alongside the human message.
const (
	KindNotFound              Kind = "not_found"
	KindInsufficientFunds     Kind = "insufficient_funds"
	KindInsufficientInventory Kind = "insufficient_inventory"
	KindInvalidQuantity       Kind = "invalid_quantity"
	KindOverSell              Kind = "over_sell"
	KindForbidden             Kind = "forbidden"
	KindUnauthenticated       Kind = "unauthenticated"
	KindAlreadySettled        Kind = "already_settled"
	KindInvalidTransition     Kind = "invalid_transition"
	KindInventoryCorruption   Kind = "inventory_corruption"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindSweepInProgress       Kind = "sweep_in_progress"
	KindValidation            Kind = "validation"
	KindInternal              Kind = "internal"
)

// Order matters: a settlement race wraps ErrInvalidTransition inside
// ErrAlreadySettled, and the outer kind must win.
var kinds = []struct {
	err    error
	kind   Kind
	status int
}{
	{ErrStoreUnavailable, KindStoreUnavailable, http.StatusServiceUnavailable},
	{ErrConcurrentUpdate, KindStoreUnavailable, http.StatusServiceUnavailable},
	{ErrInventoryCorruption, KindInventoryCorruption, http.StatusInternalServerError},
	{ErrDataInconsistency, KindInternal, http.StatusInternalServerError},
	{ErrAlreadySettled, KindAlreadySettled, http.StatusConflict},
	{ErrInvalidTransition, KindInvalidTransition, http.StatusConflict},
	{ErrAccountNotFound, KindNotFound, http.StatusNotFound},
	{ErrPropertyNotFound, KindNotFound, http.StatusNotFound},
	{ErrInvestmentNotFound, KindNotFound, http.StatusNotFound},
	{ErrTransactionNotFound, KindNotFound, http.StatusNotFound},
	{ErrDepositNotFound, KindNotFound, http.StatusNotFound},
	{ErrPriceNotFound, KindNotFound, http.StatusNotFound},
	{ErrInsufficientFunds, KindInsufficientFunds, http.StatusBadRequest},
	{ErrInsufficientInventory, KindInsufficientInventory, http.StatusBadRequest},
	{ErrInvalidQuantity, KindInvalidQuantity, http.StatusBadRequest},
	{ErrInvalidAmount, KindValidation, http.StatusBadRequest},
	{ErrInvalidDepositMethod, KindValidation, http.StatusBadRequest},
	{ErrOverSell, KindOverSell, http.StatusConflict},
	{ErrSweepInProgress, KindSweepInProgress, http.StatusConflict},
	{ErrNotSellTransaction, KindValidation, http.StatusBadRequest},
	{ErrInvalidUUID, KindValidation, http.StatusBadRequest},
	{ErrValidation, KindValidation, http.StatusBadRequest},
	{ErrForbidden, KindForbidden, http.StatusForbidden},
	{ErrUnauthenticated, KindUnauthenticated, http.StatusUnauthorized},
}

// KindOf returns the stable kind of err, or KindInternal for unknown errors.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// HTTPStatus returns the HTTP status code the API layer uses for err.
func HTTPStatus(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrConcurrentUpdate)
}
