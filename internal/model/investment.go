package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of a holding.
type InvestmentStatus string

const (
	InvestmentActive   InvestmentStatus = "active"
	InvestmentCanceled InvestmentStatus = "canceled"
	InvestmentFinished InvestmentStatus = "finished"
)

// Investment is an account's holding in a single property.
//
// SharePrice is the price paid at the first purchase into the holding; later
// top-ups only grow NumOfShares and InvestmentAmount.
type Investment struct {
	ID                    string           `json:"id"`
	AccountID             string           `json:"accountId"`
	PropertyID            string           `json:"propertyId"`
	NumOfShares           int64            `json:"numOfShares"`
	SharePrice            decimal.Decimal  `json:"sharePrice"`
	InvestmentAmount      decimal.Decimal  `json:"investmentAmount"`
	MonthlyReturns        decimal.Decimal  `json:"monthlyReturns"`
	AnnualReturns         decimal.Decimal  `json:"annualReturns"`
	TotalReturns          decimal.Decimal  `json:"totalReturns"`
	NetGains              decimal.Decimal  `json:"netGains"`
	TotalSharesPercentage decimal.Decimal  `json:"totalSharesPercentage"`
	Status                InvestmentStatus `json:"status"`
	InvestmentDate        time.Time        `json:"investmentDate"`
	LastPaymentDate       time.Time        `json:"lastPaymentDate"`
	Version               int64            `json:"-"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// IsActive reports whether the holding still counts against the property's inventory.
func (i Investment) IsActive() bool {
	return i.Status == InvestmentActive
}

// InvestmentDetail is an investment enriched with the property's current price.
type InvestmentDetail struct {
	Investment
	PropertyTitle       string          `json:"propertyTitle"`
	LatestSharePrice    decimal.Decimal `json:"latestSharePrice"`
	SharePriceVariation decimal.Decimal `json:"sharePriceVariation"`
}

// InvestmentReturns summarises what a holding has earned so far.
// Monthly and annual projections are only present for rented properties.
type InvestmentReturns struct {
	InvestmentID          string           `json:"investmentId"`
	TotalReturns          decimal.Decimal  `json:"totalReturns"`
	NetGains              decimal.Decimal  `json:"netGains"`
	TotalSharesPercentage decimal.Decimal  `json:"totalSharesPercentage"`
	MonthlyReturns        *decimal.Decimal `json:"monthlyReturns,omitempty"`
	AnnualReturns         *decimal.Decimal `json:"annualReturns,omitempty"`
	LastPaymentDate       time.Time        `json:"lastPaymentDate"`
	Payments              []ReturnPayment  `json:"payments"`
}
