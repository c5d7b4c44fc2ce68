package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
)

// InvestmentHandler handles HTTP requests for buying, selling and inspecting holdings.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the settlementService.
type InvestmentHandler struct {
	settlementService *service.SettlementService
}

// NewInvestmentHandler creates a new InvestmentHandler with the provided service dependency.
func NewInvestmentHandler(settlementService *service.SettlementService) *InvestmentHandler {
	return &InvestmentHandler{
		settlementService: settlementService,
	}
}

// MakeInvestment handles POST requests to buy shares of a property for the caller's account.
// The purchase settles immediately: the balance is debited, the property's available shares
// drop and a completed investing transaction is recorded.
//
// Endpoint: POST /api/investments/{uuid} (uuid is the property id)
// Request Body: MakeInvestmentRequest (shares)
// Response: 201 Created with Investment
// Error: 400 Bad Request on invalid quantity, insufficient funds or insufficient inventory
// Error: 404 Not Found if the account or property does not exist
// Error: 503 Service Unavailable if the ledger store is unavailable
func (h *InvestmentHandler) MakeInvestment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	propertyID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.MakeInvestmentRequest](r)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	investment, err := h.settlementService.MakeInvestment(r.Context(), caller.AccountID, propertyID, req.Shares)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, investment)
}

// SellInvestment handles POST requests to file a sell request against one of the caller's
// holdings. Nothing moves until an admin approves the pending transaction.
//
// Endpoint: POST /api/investments/{uuid}/sell
// Request Body: SellInvestmentRequest (sharesToSell)
// Response: 201 Created with the pending Transaction
// Error: 400 Bad Request if sharesToSell is not between 1 and the held shares
// Error: 403 Forbidden if the caller does not own the investment
// Error: 404 Not Found if the investment does not exist
func (h *InvestmentHandler) SellInvestment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	investmentID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.SellInvestmentRequest](r)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	txn, err := h.settlementService.SellInvestment(r.Context(), caller, investmentID, req.SharesToSell)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, txn)
}

// GetInvestment handles GET requests for a single holding, including the property's
// latest share price and the variation against the purchase price.
//
// Endpoint: GET /api/investments/{uuid}
// Response: 200 OK with InvestmentDetail
// Error: 403 Forbidden if the caller is neither the owner nor an admin
// Error: 404 Not Found if the investment does not exist
func (h *InvestmentHandler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	detail, err := h.settlementService.GetInvestment(r.Context(), caller, chi.URLParam(r, "uuid"))
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, detail)
}

// GetReturns handles GET requests for what a holding has earned so far.
//
// Endpoint: GET /api/investments/{uuid}/returns
// Response: 200 OK with InvestmentReturns
// Error: 403 Forbidden if the caller is neither the owner nor an admin
// Error: 404 Not Found if the investment does not exist
func (h *InvestmentHandler) GetReturns(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	returns, err := h.settlementService.GetReturns(r.Context(), caller, chi.URLParam(r, "uuid"))
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, returns)
}

// MyInvestments handles GET requests for every holding of the caller's account.
//
// Endpoint: GET /api/accounts/me/investments
// Response: 200 OK with array of Investment
func (h *InvestmentHandler) MyInvestments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	investments, err := h.settlementService.ListInvestments(r.Context(), caller.AccountID)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, investments)
}
