package apperrors

import "errors"

// Domain entity errors represent missing entities in the ledger.
var (
	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPropertyNotFound indicates that a property with the given ID does not exist.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrInvestmentNotFound indicates that an investment with the given ID does not exist.
	ErrInvestmentNotFound = errors.New("investment not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDepositNotFound indicates that a deposit request with the given ID does not exist.
	ErrDepositNotFound = errors.New("deposit not found")

	// ErrPriceNotFound indicates that a property has neither a current price nor a price history.
	ErrPriceNotFound = errors.New("property has no price per share")
)

// Business rule errors. All of them are detected before any mutation happens.
var (
	// ErrInsufficientFunds indicates the account balance does not cover the purchase.
	ErrInsufficientFunds = errors.New("insufficient balance to make this investment")

	// ErrInsufficientInventory indicates the property does not have enough available shares.
	ErrInsufficientInventory = errors.New("number of shares exceeds available shares")

	// ErrInvalidQuantity indicates a share count that is zero, negative or above the holding.
	ErrInvalidQuantity = errors.New("invalid number of shares")

	// ErrInvalidAmount indicates a money amount below the accepted minimum.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDepositMethod indicates a deposit method the platform does not accept.
	ErrInvalidDepositMethod = errors.New("unsupported deposit method")

	// ErrOverSell indicates an attempt to remove more shares than an investment holds.
	ErrOverSell = errors.New("cannot sell more shares than the investment holds")

	// ErrForbidden indicates the caller does not own the resource or lacks the admin role.
	ErrForbidden = errors.New("not allowed to act on this resource")

	// ErrUnauthenticated indicates the request carries no valid identity token.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrAlreadySettled indicates a pending request was already approved or rejected.
	ErrAlreadySettled = errors.New("request already settled")

	// ErrInvalidTransition indicates a status change whose source status does not match.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotSellTransaction indicates a settlement was requested on a non-selling transaction.
	ErrNotSellTransaction = errors.New("transaction is not a sell request")

	// ErrSweepInProgress indicates another distribution sweep currently holds the lease.
	ErrSweepInProgress = errors.New("return distribution already in progress")

	// ErrValidation indicates a request payload that failed field validation.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")
)

// Data integrity and infrastructure errors.
var (
	// ErrInventoryCorruption indicates the share conservation invariant is already broken.
	// It is surfaced as-is and never corrected automatically.
	ErrInventoryCorruption = errors.New("share inventory invariant violated")

	// ErrConcurrentUpdate indicates an optimistic-lock miss; the operation may be retried.
	ErrConcurrentUpdate = errors.New("document was modified concurrently")

	// ErrStoreUnavailable indicates the ledger store timed out or is unreachable.
	// Nothing was committed and the request may be retried.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrDataInconsistency indicates references between documents that cannot be resolved.
	ErrDataInconsistency = errors.New("data inconsistency detected")
)
