package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealizedGain records the outcome of an approved sell: the cost basis released from the
// holding, the proceeds credited, and the difference.
type RealizedGain struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	InvestmentID  string          `json:"investmentId"`
	AccountID     string          `json:"accountId"`
	PropertyID    string          `json:"propertyId"`
	SharesSold    int64           `json:"sharesSold"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	SaleProceeds  decimal.Decimal `json:"saleProceeds"`
	RealizedGain  decimal.Decimal `json:"realizedGain"`
	CreatedAt     time.Time       `json:"createdAt"`
}
