package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/config"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/lease"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/notify"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
)

// TestLedgerConfig returns the ledger configuration used by service tests:
// a 0.6 rental share factor and a one-month distribution period.
func TestLedgerConfig() config.LedgerConfig {
	return config.DefaultLedgerConfig()
}

// Services bundles every ledger service wired to one database, sharing the same
// entity locks the way cmd/server wires them.
type Services struct {
	DB           *sql.DB
	Settlement   *service.SettlementService
	Distribution *service.DistributionService
	Deposit      *service.DepositService
	Transaction  *service.TransactionService
	System       *service.SystemService
	Locks        *service.EntityLocks
	Locker       *lease.LocalLocker
	Notifier     *notify.Notifier
}

// NewTestServices wires the ledger services against db. notifier may be nil.
func NewTestServices(t *testing.T, db *sql.DB, notifier *notify.Notifier) *Services {
	t.Helper()

	cfg := TestLedgerConfig()
	locks := service.NewEntityLocks()
	locker := lease.NewLocalLocker()

	accountRepo := repository.NewAccountRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	investmentRepo := repository.NewInvestmentRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	returnPaymentRepo := repository.NewReturnPaymentRepository(db)

	return &Services{
		DB:         db,
		Settlement: service.NewSettlementService(
			db,
			cfg,
			accountRepo,
			propertyRepo,
			investmentRepo,
			transactionRepo,
			repository.NewRealizedGainRepository(db),
			returnPaymentRepo,
			locks,
			notifier,
		),
		Distribution: service.NewDistributionService(
			db,
			cfg,
			accountRepo,
			propertyRepo,
			investmentRepo,
			returnPaymentRepo,
			locks,
			locker,
			notifier,
		),
		Deposit: service.NewDepositService(
			db,
			cfg,
			accountRepo,
			repository.NewDepositRepository(db),
			locks,
			notifier,
		),
		Transaction: service.NewTransactionService(transactionRepo),
		System:      service.NewSystemService(db),
		Locks:       locks,
		Locker:      locker,
		Notifier:    notifier,
	}
}

func NewTestSettlementService(t *testing.T, db *sql.DB) *service.SettlementService {
	t.Helper()
	return NewTestServices(t, db, nil).Settlement
}

func NewTestDistributionService(t *testing.T, db *sql.DB) *service.DistributionService {
	t.Helper()
	return NewTestServices(t, db, nil).Distribution
}

func NewTestDepositService(t *testing.T, db *sql.DB) *service.DepositService {
	t.Helper()
	return NewTestServices(t, db, nil).Deposit
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()
	return service.NewTransactionService(repository.NewTransactionRepository(db))
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// MakeID generates a new UUID for testing.
func MakeID() string {
	return uuid.New().String()
}

// MakePropertyTitle generates a unique property title for testing.
//
// Example usage:
//
//	title := testutil.MakePropertyTitle("Canal House")
//	// Returns: "Canal House ABC123"
func MakePropertyTitle(base string) string {
	if base == "" {
		base = "Property"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// AssertDecimal fails the test unless got equals want numerically.
func AssertDecimal(t *testing.T, field string, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(Dec(want)) {
		t.Errorf("Expected %s %s, got %s", field, want, got)
	}
}

// FixedClock returns a clock frozen at the given instant.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
