package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the ledger's view of a platform user: an identifier and a money balance.
// The balance is only ever changed by settlement operations.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"-"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Role is the caller's role as carried by the identity token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller identifies who is making a ledger request.
type Caller struct {
	AccountID string `json:"accountId"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
