package validation

import (
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/request"
)

// ValidateHandleRequest validates an admin decision on a pending sell request or deposit.
//
// Required fields:
//   - action: approve or reject
//
// Optional fields:
//   - note: at most 500 characters
func ValidateHandleRequest(req request.HandleRequest) error {
	return ValidateStruct(req)
}

// ValidateDepositRequest validates a deposit request.
// The minimum amount is enforced by the deposit service.
//
// Required fields:
//   - amount: positive decimal
//   - method: instaPay, VodafoneCash or bankTransfer
func ValidateDepositRequest(req request.DepositRequest) error {
	return ValidateStruct(req)
}
