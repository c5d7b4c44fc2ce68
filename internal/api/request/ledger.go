package request

import (
	"github.com/shopspring/decimal"
)

// MakeInvestmentRequest is the body of POST /api/investments/{propertyId}.
type MakeInvestmentRequest struct {
	Shares int64 `json:"shares"`
}

// SellInvestmentRequest is the body of POST /api/investments/{investmentId}/sell.
type SellInvestmentRequest struct {
	SharesToSell int64 `json:"sharesToSell"`
}

// HandleRequest is an admin decision on a pending sell request or deposit.
type HandleRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

// DepositRequest is the body of POST /api/deposits.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"decimal_positive"`
	Method string          `json:"method" validate:"required,oneof=instaPay VodafoneCash bankTransfer"`
}
