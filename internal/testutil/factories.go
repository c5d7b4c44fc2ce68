package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

// AccountBuilder provides a fluent interface for creating test accounts.
//
// Example usage:
//
//	// Simple creation with defaults
//	account := testutil.NewAccount().Build(t, db)
//
//	// Customized account
//	account := testutil.NewAccount().
//	    WithBalance("1000").
//	    Build(t, db)
type AccountBuilder struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount() *AccountBuilder {
	return &AccountBuilder{
		ID:      MakeID(),
		Name:    "Test Investor " + randomAlphanumeric(4),
		Balance: decimal.Zero,
	}
}

// WithID sets a custom ID.
func (b *AccountBuilder) WithID(id string) *AccountBuilder {
	b.ID = id
	return b
}

// WithBalance sets the starting balance.
func (b *AccountBuilder) WithBalance(balance string) *AccountBuilder {
	b.Balance = Dec(balance)
	return b
}

// Build creates the account in the database and returns it.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.Account {
	t.Helper()

	a := model.Account{ID: b.ID, Name: b.Name, Balance: b.Balance}
	if err := repository.NewAccountRepository(db).InsertAccount(context.Background(), &a); err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	return a
}

// PropertyBuilder provides a fluent interface for creating test properties.
//
// Example usage:
//
//	property := testutil.NewProperty().
//	    WithShares(100, 100).
//	    WithPrice("50").
//	    Rented("1000").
//	    Build(t, db)
type PropertyBuilder struct {
	ID              string
	Title           string
	TotalShares     int64
	AvailableShares int64
	PricePerShare   decimal.Decimal
	IsRented        bool
	RentalIncome    decimal.Decimal
	PriceSold       decimal.NullDecimal
	PriceHistory    []decimal.Decimal
}

// NewProperty creates a PropertyBuilder with 100 available shares at 50.
func NewProperty() *PropertyBuilder {
	return &PropertyBuilder{
		ID:              MakeID(),
		Title:           MakePropertyTitle("Test Property"),
		TotalShares:     100,
		AvailableShares: 100,
		PricePerShare:   Dec("50"),
		RentalIncome:    decimal.Zero,
	}
}

// WithID sets a custom ID.
func (b *PropertyBuilder) WithID(id string) *PropertyBuilder {
	b.ID = id
	return b
}

// WithShares sets total and available shares.
func (b *PropertyBuilder) WithShares(total, available int64) *PropertyBuilder {
	b.TotalShares = total
	b.AvailableShares = available
	return b
}

// WithPrice sets the current price per share.
func (b *PropertyBuilder) WithPrice(price string) *PropertyBuilder {
	b.PricePerShare = Dec(price)
	return b
}

// WithPriceHistory appends later prices after the initial one; the last becomes current.
func (b *PropertyBuilder) WithPriceHistory(prices ...string) *PropertyBuilder {
	for _, p := range prices {
		b.PriceHistory = append(b.PriceHistory, Dec(p))
	}
	return b
}

// Rented marks the property as rented with the given periodic income.
func (b *PropertyBuilder) Rented(income string) *PropertyBuilder {
	b.IsRented = true
	b.RentalIncome = Dec(income)
	return b
}

// SoldFor records a realized sale price.
func (b *PropertyBuilder) SoldFor(price string) *PropertyBuilder {
	b.PriceSold = decimal.NewNullDecimal(Dec(price))
	return b
}

// Build creates the property and its price history in the database and returns it.
func (b *PropertyBuilder) Build(t *testing.T, db *sql.DB) model.Property {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewPropertyRepository(db)

	recordedAt := time.Now().UTC().Add(-time.Duration(len(b.PriceHistory)+1) * time.Hour)
	p := model.Property{
		ID:              b.ID,
		Title:           b.Title,
		TotalShares:     b.TotalShares,
		AvailableShares: b.AvailableShares,
		PricePerShare:   b.PricePerShare,
		IsRented:        b.IsRented,
		RentalIncome:    b.RentalIncome,
		PriceSold:       b.PriceSold,
		UpdatedAt:       recordedAt,
	}
	if err := repo.InsertProperty(ctx, &p); err != nil {
		t.Fatalf("Failed to create test property: %v", err)
	}

	for i, price := range b.PriceHistory {
		err := repo.InsertPrice(ctx, &model.PropertyPrice{
			PropertyID: p.ID,
			Price:      price,
			RecordedAt: recordedAt.Add(time.Duration(i+1) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Failed to create test property price: %v", err)
		}
		p.PricePerShare = price
	}

	stored, err := repo.GetProperty(ctx, p.ID)
	if err != nil {
		t.Fatalf("Failed to reload test property: %v", err)
	}
	return stored
}

// InvestmentBuilder provides a fluent interface for creating test investments
// directly, bypassing the settlement engine. Build takes the shares out of the
// property's available inventory so share conservation still holds.
//
// Example usage:
//
//	inv := testutil.NewInvestment(account.ID, property.ID).
//	    WithShares(10, "50").
//	    WithMonthlyReturns("60").
//	    WithLastPaymentDate(time.Now().AddDate(0, -1, -1)).
//	    Build(t, db)
type InvestmentBuilder struct {
	ID              string
	AccountID       string
	PropertyID      string
	Shares          int64
	SharePrice      decimal.Decimal
	MonthlyReturns  decimal.Decimal
	TotalReturns    decimal.Decimal
	Status          model.InvestmentStatus
	InvestmentDate  time.Time
	LastPaymentDate time.Time
}

// NewInvestment creates an InvestmentBuilder for 10 shares at 50.
func NewInvestment(accountID, propertyID string) *InvestmentBuilder {
	now := time.Now().UTC()
	return &InvestmentBuilder{
		ID:              MakeID(),
		AccountID:       accountID,
		PropertyID:      propertyID,
		Shares:          10,
		SharePrice:      Dec("50"),
		MonthlyReturns:  decimal.Zero,
		TotalReturns:    decimal.Zero,
		Status:          model.InvestmentActive,
		InvestmentDate:  now,
		LastPaymentDate: now,
	}
}

// WithShares sets the share count and purchase price.
func (b *InvestmentBuilder) WithShares(shares int64, price string) *InvestmentBuilder {
	b.Shares = shares
	b.SharePrice = Dec(price)
	return b
}

// WithMonthlyReturns sets the monthly return projection.
func (b *InvestmentBuilder) WithMonthlyReturns(monthly string) *InvestmentBuilder {
	b.MonthlyReturns = Dec(monthly)
	return b
}

// WithLastPaymentDate sets when returns were last credited.
func (b *InvestmentBuilder) WithLastPaymentDate(at time.Time) *InvestmentBuilder {
	b.LastPaymentDate = at.UTC()
	if b.InvestmentDate.After(b.LastPaymentDate) {
		b.InvestmentDate = b.LastPaymentDate
	}
	return b
}

// WithStatus sets the investment status.
func (b *InvestmentBuilder) WithStatus(status model.InvestmentStatus) *InvestmentBuilder {
	b.Status = status
	return b
}

// Build creates the investment in the database and returns it.
func (b *InvestmentBuilder) Build(t *testing.T, db *sql.DB) model.Investment {
	t.Helper()
	ctx := context.Background()

	amount := b.SharePrice.Mul(decimal.NewFromInt(b.Shares))
	inv := model.Investment{
		ID:                    b.ID,
		AccountID:             b.AccountID,
		PropertyID:            b.PropertyID,
		NumOfShares:           b.Shares,
		SharePrice:            b.SharePrice,
		InvestmentAmount:      amount,
		MonthlyReturns:        b.MonthlyReturns,
		AnnualReturns:         b.MonthlyReturns.Mul(decimal.NewFromInt(12)),
		TotalReturns:          b.TotalReturns,
		NetGains:              b.TotalReturns.Sub(amount),
		TotalSharesPercentage: decimal.Zero,
		Status:                b.Status,
		InvestmentDate:        b.InvestmentDate,
		LastPaymentDate:       b.LastPaymentDate,
	}

	if err := repository.NewInvestmentRepository(db).InsertInvestment(ctx, &inv); err != nil {
		t.Fatalf("Failed to create test investment: %v", err)
	}

	if b.Status == model.InvestmentActive && b.Shares > 0 {
		if err := repository.NewPropertyRepository(db).ReserveShares(ctx, b.PropertyID, b.Shares); err != nil {
			t.Fatalf("Failed to reserve shares for test investment: %v", err)
		}
	}
	return inv
}

// TransactionBuilder provides a fluent interface for creating test transactions.
//
// Example usage:
//
//	txn := testutil.NewTransaction(inv).
//	    Selling(4, "50").
//	    Build(t, db)
type TransactionBuilder struct {
	ID            string
	AccountID     string
	InvestmentID  string
	PropertyID    string
	Type          model.TransactionType
	Shares        int64
	PricePerShare decimal.Decimal
	Status        model.TransactionStatus
	Date          time.Time
}

// NewTransaction creates a TransactionBuilder for a completed purchase of inv.
func NewTransaction(inv model.Investment) *TransactionBuilder {
	return &TransactionBuilder{
		ID:            MakeID(),
		AccountID:     inv.AccountID,
		InvestmentID:  inv.ID,
		PropertyID:    inv.PropertyID,
		Type:          model.TransactionInvesting,
		Shares:        inv.NumOfShares,
		PricePerShare: inv.SharePrice,
		Status:        model.TransactionCompleted,
		Date:          time.Now().UTC(),
	}
}

// Selling turns the builder into a pending sell request.
func (b *TransactionBuilder) Selling(shares int64, price string) *TransactionBuilder {
	b.Type = model.TransactionSelling
	b.Shares = shares
	b.PricePerShare = Dec(price)
	b.Status = model.TransactionPending
	return b
}

// WithStatus sets the transaction status.
func (b *TransactionBuilder) WithStatus(status model.TransactionStatus) *TransactionBuilder {
	b.Status = status
	return b
}

// WithDate sets the transaction date.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	txn := model.Transaction{
		ID:              b.ID,
		AccountID:       b.AccountID,
		InvestmentID:    b.InvestmentID,
		PropertyID:      b.PropertyID,
		Type:            b.Type,
		NumOfShares:     b.Shares,
		PricePerShare:   b.PricePerShare,
		TotalAmount:     b.PricePerShare.Mul(decimal.NewFromInt(b.Shares)),
		NetGain:         decimal.Zero,
		Status:          b.Status,
		TransactionDate: b.Date,
	}
	if err := repository.NewTransactionRepository(db).InsertTransaction(context.Background(), &txn); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return txn
}

// DepositBuilder provides a fluent interface for creating test deposits.
type DepositBuilder struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	Method    model.DepositMethod
	Status    model.DepositStatus
}

// NewDeposit creates a pending 1000 instaPay DepositBuilder for the account.
func NewDeposit(accountID string) *DepositBuilder {
	return &DepositBuilder{
		ID:        MakeID(),
		AccountID: accountID,
		Amount:    Dec("1000"),
		Method:    model.DepositInstaPay,
		Status:    model.DepositPending,
	}
}

// WithAmount sets the deposit amount.
func (b *DepositBuilder) WithAmount(amount string) *DepositBuilder {
	b.Amount = Dec(amount)
	return b
}

// Build creates the deposit in the database and returns it.
func (b *DepositBuilder) Build(t *testing.T, db *sql.DB) model.Deposit {
	t.Helper()

	d := model.Deposit{
		ID:        b.ID,
		AccountID: b.AccountID,
		Amount:    b.Amount,
		Method:    b.Method,
		Status:    b.Status,
	}
	if err := repository.NewDepositRepository(db).InsertDeposit(context.Background(), &d); err != nil {
		t.Fatalf("Failed to create test deposit: %v", err)
	}
	return d
}

// Convenience functions

// CreateFundedAccount creates an account holding the given balance.
//
// Example usage:
//
//	account := testutil.CreateFundedAccount(t, db, "1000")
func CreateFundedAccount(t *testing.T, db *sql.DB, balance string) model.Account {
	t.Helper()
	return NewAccount().WithBalance(balance).Build(t, db)
}

// GetAccount reloads an account from the database.
func GetAccount(t *testing.T, db *sql.DB, id string) model.Account {
	t.Helper()
	a, err := repository.NewAccountRepository(db).GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load account %s: %v", id, err)
	}
	return a
}

// GetProperty reloads a property from the database.
func GetProperty(t *testing.T, db *sql.DB, id string) model.Property {
	t.Helper()
	p, err := repository.NewPropertyRepository(db).GetProperty(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load property %s: %v", id, err)
	}
	return p
}

// GetInvestment reloads an investment from the database.
func GetInvestment(t *testing.T, db *sql.DB, id string) model.Investment {
	t.Helper()
	i, err := repository.NewInvestmentRepository(db).GetInvestment(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load investment %s: %v", id, err)
	}
	return i
}

// GetTransaction reloads a transaction from the database.
func GetTransaction(t *testing.T, db *sql.DB, id string) model.Transaction {
	t.Helper()
	txn, err := repository.NewTransactionRepository(db).GetTransaction(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load transaction %s: %v", id, err)
	}
	return txn
}
