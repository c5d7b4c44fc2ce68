package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnPayment records one period of returns credited to a holding by the
// distribution sweep.
type ReturnPayment struct {
	ID           string          `json:"id"`
	InvestmentID string          `json:"investmentId"`
	AccountID    string          `json:"accountId"`
	PropertyID   string          `json:"propertyId"`
	Amount       decimal.Decimal `json:"amount"`
	PeriodStart  time.Time       `json:"periodStart"`
	PeriodEnd    time.Time       `json:"periodEnd"`
	PaidAt       time.Time       `json:"paidAt"`
}
