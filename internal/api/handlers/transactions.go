package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/validation"
)

// TransactionHandler handles HTTP requests for transaction endpoints.
// Reads go to the transactionService; settlement of pending sell requests goes to
// the settlementService.
type TransactionHandler struct {
	transactionService *service.TransactionService
	settlementService  *service.SettlementService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependencies.
func NewTransactionHandler(transactionService *service.TransactionService, settlementService *service.SettlementService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		settlementService:  settlementService,
	}
}

// GetTransaction handles GET requests to retrieve a single transaction by ID.
//
// Endpoint: GET /api/transactions/{uuid}
// Response: 200 OK with Transaction
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 403 Forbidden if the caller is neither the owner nor an admin
// Error: 404 Not Found if transaction not found
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	transaction, err := h.transactionService.GetTransaction(r.Context(), caller, chi.URLParam(r, "uuid"))
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// MyTransactions handles GET requests for the caller's ledger.
//
// Endpoint: GET /api/accounts/me/transactions
// Query Parameters:
//   - type: comma-separated transaction types (investing, selling)
//   - status: comma-separated statuses (pending, completed, failed)
//   - start_date, end_date: YYYY-MM-DD or RFC3339
//   - sort_dir: asc (default) or desc
//
// Response: 200 OK with array of Transaction
// Error: 400 Bad Request if a filter is invalid
func (h *TransactionHandler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters, err := request.ParseTransactionFilters(
		q.Get("type"),
		q.Get("status"),
		q.Get("start_date"),
		q.Get("end_date"),
		q.Get("sort_dir"),
	)
	if err != nil {
		response.RespondAppError(w, r, fmt.Errorf("%w: %w", apperrors.ErrValidation, err))
		return
	}

	transactions, err := h.transactionService.ListForAccount(r.Context(), caller.AccountID, *filters)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// HandleTransaction handles PATCH requests in which an admin approves or rejects a
// pending sell request.
//
// Endpoint: PATCH /api/transactions/{uuid}/handle
// Request Body: HandleRequest (action, note)
// Response: 200 OK with the settled Transaction
// Error: 400 Bad Request if the body is invalid or the transaction is not a sell request
// Error: 404 Not Found if transaction not found
// Error: 409 Conflict if already settled, or if the holding no longer covers the sale
func (h *TransactionHandler) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.HandleRequest](r)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}
	if err := validation.ValidateHandleRequest(req); err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	txn, err := h.settlementService.SettleSell(
		r.Context(),
		caller,
		chi.URLParam(r, "uuid"),
		model.Decision(req.Action),
		req.Note,
	)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, txn)
}
