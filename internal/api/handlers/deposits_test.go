package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/testutil"
)

func setupDepositHandler(t *testing.T) (*DepositHandler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svcs := testutil.NewTestServices(t, db, nil)
	return NewDepositHandler(svcs.Deposit), db
}

func TestDepositHandler_RequestDeposit(t *testing.T) {
	t.Run("files a pending deposit", func(t *testing.T) {
		handler, db := setupDepositHandler(t)
		account := testutil.CreateFundedAccount(t, db, "0")

		req := testutil.NewJSONRequest(http.MethodPost, "/api/deposits", map[string]any{
			"amount": "1500",
			"method": "instaPay",
		}, nil)
		req = testutil.AsCaller(req, testutil.User(account.ID))
		w := httptest.NewRecorder()

		handler.RequestDeposit(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var deposit model.Deposit
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&deposit)

		if deposit.Status != model.DepositPending {
			t.Errorf("Expected pending, got %s", deposit.Status)
		}
		testutil.AssertDecimal(t, "balance", "0", testutil.GetAccount(t, db, account.ID).Balance)
	})

	t.Run("returns 400 with field details on validation failure", func(t *testing.T) {
		handler, db := setupDepositHandler(t)
		account := testutil.CreateFundedAccount(t, db, "0")

		req := testutil.NewJSONRequest(http.MethodPost, "/api/deposits", map[string]any{
			"amount": 0,
			"method": "cash",
		}, nil)
		req = testutil.AsCaller(req, testutil.User(account.ID))
		w := httptest.NewRecorder()

		handler.RequestDeposit(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		details, ok := decodeError(t, w).Details.(map[string]any)
		if !ok || len(details) != 2 {
			t.Errorf("Expected amount and method details, got %v", details)
		}
	})

	t.Run("returns 400 below the minimum deposit", func(t *testing.T) {
		handler, db := setupDepositHandler(t)
		account := testutil.CreateFundedAccount(t, db, "0")

		req := testutil.NewJSONRequest(http.MethodPost, "/api/deposits", map[string]any{
			"amount": "999.99",
			"method": "bankTransfer",
		}, nil)
		req = testutil.AsCaller(req, testutil.User(account.ID))
		w := httptest.NewRecorder()

		handler.RequestDeposit(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestDepositHandler_HandleDeposit(t *testing.T) {
	t.Run("approve credits the balance", func(t *testing.T) {
		handler, db := setupDepositHandler(t)
		account := testutil.CreateFundedAccount(t, db, "100")
		deposit := testutil.NewDeposit(account.ID).Build(t, db)

		req := testutil.NewJSONRequest(
			http.MethodPatch,
			"/api/deposits/"+deposit.ID+"/handle",
			map[string]any{"action": "approve"},
			map[string]string{"uuid": deposit.ID},
		)
		req = testutil.AsCaller(req, testutil.Admin())
		w := httptest.NewRecorder()

		handler.HandleDeposit(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var settled model.Deposit
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&settled)

		if settled.Status != model.DepositPaid {
			t.Errorf("Expected paid, got %s", settled.Status)
		}
		testutil.AssertDecimal(t, "balance", "1100", testutil.GetAccount(t, db, account.ID).Balance)
	})

	t.Run("returns 404 for unknown deposit", func(t *testing.T) {
		handler, _ := setupDepositHandler(t)
		id := testutil.MakeID()

		req := testutil.NewJSONRequest(
			http.MethodPatch,
			"/api/deposits/"+id+"/handle",
			map[string]any{"action": "reject"},
			map[string]string{"uuid": id},
		)
		req = testutil.AsCaller(req, testutil.Admin())
		w := httptest.NewRecorder()

		handler.HandleDeposit(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
