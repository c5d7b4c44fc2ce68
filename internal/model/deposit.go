package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositMethod string

const (
	DepositInstaPay     DepositMethod = "instaPay"
	DepositVodafoneCash DepositMethod = "VodafoneCash"
	DepositBankTransfer DepositMethod = "bankTransfer"
)

type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositPaid     DepositStatus = "paid"
	DepositDeclined DepositStatus = "declined"
)

// Deposit is a request to top up an account balance, settled by an admin.
type Deposit struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Method      DepositMethod   `json:"method"`
	Status      DepositStatus   `json:"status"`
	RequestedAt time.Time       `json:"requestedAt"`
	SettledAt   *time.Time      `json:"settledAt,omitempty"`
	SettledBy   string          `json:"settledBy,omitempty"`
}
