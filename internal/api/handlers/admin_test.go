package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/testutil"
)

func TestAdminHandler_DistributeReturns(t *testing.T) {
	t.Run("credits due returns and reports the run", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)
		handler := NewAdminHandler(svcs.Distribution)

		account := testutil.CreateFundedAccount(t, db, "500")
		property := testutil.NewProperty().Rented("1000").Build(t, db)
		testutil.NewInvestment(account.ID, property.ID).
			WithMonthlyReturns("60").
			WithLastPaymentDate(time.Now().AddDate(0, -1, -1)).
			Build(t, db)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/returns/distribute", nil)
		req = testutil.AsCaller(req, testutil.Admin())
		w := httptest.NewRecorder()

		handler.DistributeReturns(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var report model.DistributionReport
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&report)

		if report.Credited != 1 {
			t.Errorf("Expected 1 credited, got %d", report.Credited)
		}
		testutil.AssertDecimal(t, "totalCredited", "60", report.TotalCredited)
		testutil.AssertDecimal(t, "balance", "560", testutil.GetAccount(t, db, account.ID).Balance)
	})

	t.Run("returns 409 while another sweep holds the lease", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db, nil)
		handler := NewAdminHandler(svcs.Distribution)

		release, err := svcs.Locker.Acquire(context.Background(), "distribute-returns", time.Minute)
		if err != nil {
			t.Fatalf("Failed to take lease: %v", err)
		}
		defer release(context.Background()) //nolint:errcheck // test cleanup

		req := httptest.NewRequest(http.MethodPost, "/api/admin/returns/distribute", nil)
		w := httptest.NewRecorder()

		handler.DistributeReturns(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})
}
