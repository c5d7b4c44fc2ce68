package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is the subset of a catalog property the ledger reads and writes.
type Property struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	TotalShares     int64               `json:"totalShares"`
	AvailableShares int64               `json:"availableShares"`
	PricePerShare   decimal.Decimal     `json:"pricePerShare"`
	IsRented        bool                `json:"isRented"`
	RentalIncome    decimal.Decimal     `json:"rentalIncome"`
	PriceSold       decimal.NullDecimal `json:"priceSold"`
	Version         int64               `json:"-"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// PropertyPrice is one entry of a property's append-only price-per-share history.
type PropertyPrice struct {
	ID         string          `json:"id"`
	PropertyID string          `json:"propertyId"`
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// YieldModel describes how a property produces returns for its investors.
// It is one of Rented, Sold or Unsold.
type YieldModel interface {
	yieldModel()
}

// Rented properties pay a share of their periodic rental income.
type Rented struct {
	RentalIncome decimal.Decimal
}

// Sold properties have a realized sale price.
type Sold struct {
	PriceSold decimal.Decimal
}

// Unsold properties are neither rented nor sold; gains are informational only.
type Unsold struct{}

func (Rented) yieldModel() {}
func (Sold) yieldModel()   {}
func (Unsold) yieldModel() {}

// Yield returns the property's yield model.
func (p Property) Yield() YieldModel {
	switch {
	case p.IsRented:
		return Rented{RentalIncome: p.RentalIncome}
	case p.PriceSold.Valid:
		return Sold{PriceSold: p.PriceSold.Decimal}
	default:
		return Unsold{}
	}
}

// OutstandingShares is the number of shares currently held by investors.
func (p Property) OutstandingShares() int64 {
	return p.TotalShares - p.AvailableShares
}
