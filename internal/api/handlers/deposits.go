package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/validation"
)

// DepositHandler handles HTTP requests for funding an account.
type DepositHandler struct {
	depositService *service.DepositService
}

// NewDepositHandler creates a new DepositHandler with the provided service dependency.
func NewDepositHandler(depositService *service.DepositService) *DepositHandler {
	return &DepositHandler{
		depositService: depositService,
	}
}

// RequestDeposit handles POST requests to file a deposit for the caller's account.
// The balance is only credited once an admin approves the request.
//
// Endpoint: POST /api/deposits
// Request Body: DepositRequest (amount, method)
// Response: 201 Created with the pending Deposit
// Error: 400 Bad Request if the amount is below the minimum or the method is unknown
func (h *DepositHandler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.DepositRequest](r)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}
	if err := validation.ValidateDepositRequest(req); err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	deposit, err := h.depositService.RequestDeposit(r.Context(), caller, req.Amount, model.DepositMethod(req.Method))
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, deposit)
}

// HandleDeposit handles PATCH requests in which an admin approves or rejects a deposit.
//
// Endpoint: PATCH /api/deposits/{uuid}/handle
// Request Body: HandleRequest (action)
// Response: 200 OK with the settled Deposit
// Error: 404 Not Found if the deposit does not exist
// Error: 409 Conflict if the deposit was already settled
func (h *DepositHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
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

	deposit, err := h.depositService.SettleDeposit(r.Context(), caller, chi.URLParam(r, "uuid"), model.Decision(req.Action))
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, deposit)
}
