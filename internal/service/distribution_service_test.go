package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/notify"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/testutil"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Name() string { return "recording" }

func (d *recordingDispatcher) Dispatch(_ context.Context, e notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) ofType(eventType string) []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

var purchaseTime = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// rentedHolding buys 10 shares of a rented property (income 1000, 100 shares at 50)
// at purchaseTime.
func rentedHolding(t *testing.T, svcs *testutil.Services) (model.Account, model.Property, model.Investment) {
	t.Helper()

	account := testutil.CreateFundedAccount(t, svcs.DB, "1000")
	property := testutil.NewProperty().WithShares(100, 100).WithPrice("50").Rented("1000").Build(t, svcs.DB)

	svcs.Settlement.WithClock(testutil.FixedClock(purchaseTime))
	inv, err := svcs.Settlement.MakeInvestment(context.Background(), account.ID, property.ID, 10)
	if err != nil {
		t.Fatalf("MakeInvestment() returned unexpected error: %v", err)
	}
	return account, property, inv
}

// TestDistributionService_DistributeReturns tests the return distribution sweep.
//
// WHY: The sweep pays investors real money. Each due investment must be paid exactly
// once per period, and a bad record must not stop everyone else from being paid.
func TestDistributionService_DistributeReturns(t *testing.T) {
	ctx := context.Background()

	t.Run("credits one period of returns", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		dispatcher := &recordingDispatcher{}
		notifier := notify.NewNotifier(dispatcher, time.Second)
		svcs := testutil.NewTestServices(t, db, notifier)
		account, _, inv := rentedHolding(t, svcs)

		testutil.AssertDecimal(t, "monthlyReturns", "60", inv.MonthlyReturns)
		paidAt := purchaseTime.AddDate(0, 1, 0)
		svcs.Distribution.WithClock(testutil.FixedClock(paidAt))

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Scanned != 1 || report.Credited != 1 || report.Skipped != 0 || report.Failed != 0 {
			t.Errorf("Unexpected report: %+v", report)
		}
		testutil.AssertDecimal(t, "totalCredited", "60", report.TotalCredited)

		testutil.AssertDecimal(t, "balance", "560", testutil.GetAccount(t, db, account.ID).Balance)
		stored := testutil.GetInvestment(t, db, inv.ID)
		testutil.AssertDecimal(t, "totalReturns", "60", stored.TotalReturns)
		testutil.AssertDecimal(t, "netGains", "-440", stored.NetGains)
		if !stored.LastPaymentDate.Equal(paidAt) {
			t.Errorf("Expected lastPaymentDate %v, got %v", paidAt, stored.LastPaymentDate)
		}

		payments, err := repository.NewReturnPaymentRepository(db).GetReturnPaymentsByInvestment(ctx, inv.ID)
		if err != nil {
			t.Fatalf("GetReturnPaymentsByInvestment() returned unexpected error: %v", err)
		}
		if len(payments) != 1 {
			t.Fatalf("Expected 1 return payment, got %d", len(payments))
		}
		testutil.AssertDecimal(t, "payment amount", "60", payments[0].Amount)
		if payments[0].AccountID != account.ID || !payments[0].PaidAt.Equal(paidAt) {
			t.Errorf("Unexpected return payment: %+v", payments[0])
		}
		if !payments[0].PeriodStart.Equal(inv.LastPaymentDate) || !payments[0].PeriodEnd.Equal(paidAt) {
			t.Errorf("Expected period %v..%v, got %v..%v", inv.LastPaymentDate, paidAt, payments[0].PeriodStart, payments[0].PeriodEnd)
		}

		notifier.Wait()
		credited := dispatcher.ofType(notify.EventReturnsCredited)
		if len(credited) != 1 || credited[0].AccountID != account.ID {
			t.Errorf("Expected one returns.credited event for %s, got %+v", account.ID, credited)
		}
	})

	t.Run("a second sweep in the same period credits nothing", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)
		account, _, inv := rentedHolding(t, svcs)

		svcs.Distribution.WithClock(testutil.FixedClock(purchaseTime.AddDate(0, 1, 0)))
		if _, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual); err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		svcs.Distribution.WithClock(testutil.FixedClock(purchaseTime.AddDate(0, 1, 20)))

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Credited != 0 || report.Skipped != 1 {
			t.Errorf("Expected nothing credited and one skipped, got %+v", report)
		}
		testutil.AssertDecimal(t, "balance", "560", testutil.GetAccount(t, db, account.ID).Balance)
		testutil.AssertDecimal(t, "totalReturns", "60", testutil.GetInvestment(t, db, inv.ID).TotalReturns)
		testutil.AssertRowCount(t, db, "return_payment", 1)
	})

	t.Run("pays again once the next period has elapsed", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)
		account, _, inv := rentedHolding(t, svcs)

		svcs.Distribution.WithClock(testutil.FixedClock(purchaseTime.AddDate(0, 1, 0)))
		if _, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerScheduled); err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		svcs.Distribution.WithClock(testutil.FixedClock(purchaseTime.AddDate(0, 2, 0)))

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerScheduled)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Credited != 1 {
			t.Errorf("Expected one credit, got %+v", report)
		}
		testutil.AssertDecimal(t, "balance", "620", testutil.GetAccount(t, db, account.ID).Balance)

		total, count, err := repository.NewReturnPaymentRepository(db).SumReturnPayments(ctx, inv.ID)
		if err != nil {
			t.Fatalf("SumReturnPayments() returned unexpected error: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 return payments, got %d", count)
		}
		stored := testutil.GetInvestment(t, db, inv.ID)
		if !total.Equal(stored.TotalReturns) {
			t.Errorf("Expected payments to sum to totalReturns %s, got %s", stored.TotalReturns, total)
		}
	})

	t.Run("skips investments that are not yet due", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)
		account, _, _ := rentedHolding(t, svcs)
		svcs.Distribution.WithClock(testutil.FixedClock(purchaseTime.AddDate(0, 1, 0).Add(-time.Second)))

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Credited != 0 || report.Skipped != 1 {
			t.Errorf("Expected one skipped investment, got %+v", report)
		}
		testutil.AssertDecimal(t, "balance", "500", testutil.GetAccount(t, db, account.ID).Balance)
	})

	t.Run("skips investments without returns", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)

		account := testutil.CreateFundedAccount(t, db, "0")
		property := testutil.NewProperty().Build(t, db)
		inv := testutil.NewInvestment(account.ID, property.ID).
			WithLastPaymentDate(time.Now().AddDate(0, -2, 0)).
			Build(t, db)

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Skipped != 1 || report.Credited != 0 {
			t.Errorf("Expected one skipped investment, got %+v", report)
		}
		stored := testutil.GetInvestment(t, db, inv.ID)
		if !stored.LastPaymentDate.Equal(inv.LastPaymentDate) {
			t.Errorf("Expected lastPaymentDate to stay %v, got %v", inv.LastPaymentDate, stored.LastPaymentDate)
		}
	})

	t.Run("skips investments whose property no longer exists", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)

		orphanOwner := testutil.CreateFundedAccount(t, db, "0")
		orphanProperty := testutil.NewProperty().Rented("1000").Build(t, db)
		testutil.NewInvestment(orphanOwner.ID, orphanProperty.ID).
			WithMonthlyReturns("60").
			WithLastPaymentDate(time.Now().AddDate(0, -2, 0)).
			Build(t, db)

		payee := testutil.CreateFundedAccount(t, db, "0")
		property := testutil.NewProperty().Rented("1000").Build(t, db)
		testutil.NewInvestment(payee.ID, property.ID).
			WithMonthlyReturns("60").
			WithLastPaymentDate(time.Now().AddDate(0, -2, 0)).
			Build(t, db)

		if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
			t.Fatalf("Failed to disable foreign keys: %v", err)
		}
		if _, err := db.Exec("DELETE FROM property WHERE id = ?", orphanProperty.ID); err != nil {
			t.Fatalf("Failed to delete property: %v", err)
		}

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Scanned != 2 || report.Credited != 1 || report.Skipped != 1 || report.Failed != 0 {
			t.Errorf("Unexpected report: %+v", report)
		}
		testutil.AssertDecimal(t, "payee balance", "60", testutil.GetAccount(t, db, payee.ID).Balance)
		testutil.AssertDecimal(t, "orphan balance", "0", testutil.GetAccount(t, db, orphanOwner.ID).Balance)
	})

	t.Run("fails every item of a property with broken inventory", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)

		owner := testutil.CreateFundedAccount(t, db, "0")
		broken := testutil.NewProperty().Rented("1000").Build(t, db)
		testutil.NewInvestment(owner.ID, broken.ID).
			WithMonthlyReturns("60").
			WithLastPaymentDate(time.Now().AddDate(0, -2, 0)).
			Build(t, db)

		payee := testutil.CreateFundedAccount(t, db, "0")
		healthy := testutil.NewProperty().Rented("1000").Build(t, db)
		testutil.NewInvestment(payee.ID, healthy.ID).
			WithMonthlyReturns("60").
			WithLastPaymentDate(time.Now().AddDate(0, -2, 0)).
			Build(t, db)

		if _, err := db.Exec("UPDATE property SET available_shares = available_shares - 1 WHERE id = ?", broken.ID); err != nil {
			t.Fatalf("Failed to corrupt inventory: %v", err)
		}

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Failed != 1 || report.Credited != 1 {
			t.Errorf("Expected one failed and one credited item, got %+v", report)
		}
		testutil.AssertDecimal(t, "owner balance", "0", testutil.GetAccount(t, db, owner.ID).Balance)
		testutil.AssertDecimal(t, "payee balance", "60", testutil.GetAccount(t, db, payee.ID).Balance)

		var available int64
		if err := db.QueryRow("SELECT available_shares FROM property WHERE id = ?", broken.ID).Scan(&available); err != nil {
			t.Fatalf("Failed to read inventory: %v", err)
		}
		if available != 89 {
			t.Errorf("Expected corrupted inventory to be left untouched at 89, got %d", available)
		}
	})

	t.Run("credits many investments across properties", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)

		accounts := make([]model.Account, 6)
		for i := range accounts {
			accounts[i] = testutil.CreateFundedAccount(t, db, "0")
			property := testutil.NewProperty().Rented("1000").Build(t, db)
			testutil.NewInvestment(accounts[i].ID, property.ID).
				WithMonthlyReturns("60").
				WithLastPaymentDate(time.Now().AddDate(0, -1, -1)).
				Build(t, db)
			// A second holding of the same account on another property shares its lock.
			other := testutil.NewProperty().Rented("500").Build(t, db)
			testutil.NewInvestment(accounts[i].ID, other.ID).
				WithMonthlyReturns("30").
				WithLastPaymentDate(time.Now().AddDate(0, -1, -1)).
				Build(t, db)
		}

		// Execute
		report, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Credited != 12 || report.Failed != 0 {
			t.Errorf("Expected 12 credits, got %+v", report)
		}
		testutil.AssertDecimal(t, "totalCredited", "540", report.TotalCredited)
		for _, a := range accounts {
			testutil.AssertDecimal(t, "balance", "90", testutil.GetAccount(t, db, a.ID).Balance)
		}
	})

	t.Run("refuses to run while another sweep holds the lease", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)

		release, err := svcs.Locker.Acquire(ctx, "distribute-returns", time.Minute)
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}

		// Execute
		_, err = svcs.Distribution.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if !errors.Is(err, apperrors.ErrSweepInProgress) {
			t.Errorf("Expected ErrSweepInProgress, got %v", err)
		}

		if err := release(ctx); err != nil {
			t.Fatalf("release() returned unexpected error: %v", err)
		}
		if _, err := svcs.Distribution.DistributeReturns(ctx, service.TriggerManual); err != nil {
			t.Errorf("Expected sweep to run after release, got %v", err)
		}
	})

	t.Run("returns an empty report when nothing is active", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDistributionService(t, db)

		// Execute
		report, err := svc.DistributeReturns(ctx, service.TriggerManual)

		// Assert
		if err != nil {
			t.Fatalf("DistributeReturns() returned unexpected error: %v", err)
		}
		if report.Scanned != 0 {
			t.Errorf("Expected nothing scanned, got %d", report.Scanned)
		}
	})
}
