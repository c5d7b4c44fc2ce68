package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes buys from sells.
type TransactionType string

const (
	TransactionInvesting TransactionType = "investing"
	TransactionSelling   TransactionType = "selling"
)

// TransactionStatus is the settlement state of a transaction.
// Pending is the only non-terminal state.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s != TransactionPending
}

// Decision is an admin's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Transaction is an append-only audit record of a money-moving intent.
type Transaction struct {
	ID              string            `json:"id"`
	AccountID       string            `json:"accountId"`
	InvestmentID    string            `json:"investmentId"`
	PropertyID      string            `json:"propertyId"`
	Type            TransactionType   `json:"transactionType"`
	NumOfShares     int64             `json:"numOfShares"`
	PricePerShare   decimal.Decimal   `json:"pricePerShareAtTransaction"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	NetGain         decimal.Decimal   `json:"netGain"`
	Status          TransactionStatus `json:"status"`
	TransactionDate time.Time         `json:"transactionDate"`
	SettledAt       *time.Time        `json:"settledAt,omitempty"`
	SettledBy       string            `json:"settledBy,omitempty"`
	AdminNote       string            `json:"adminNote,omitempty"`
}

// Settlement carries the admin-side metadata stamped on a transaction when it leaves pending.
type Settlement struct {
	SettledBy string
	SettledAt time.Time
	Note      string
}

// TransactionFilters narrows an account's transaction list. Empty fields match everything.
type TransactionFilters struct {
	Types     []TransactionType
	Statuses  []TransactionStatus
	StartDate *time.Time
	EndDate   *time.Time
	SortDir   string
}
