package handlers

import (
	"net/http"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
)

// AdminHandler handles operator endpoints.
type AdminHandler struct {
	distributionService *service.DistributionService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(distributionService *service.DistributionService) *AdminHandler {
	return &AdminHandler{
		distributionService: distributionService,
	}
}

// DistributeReturns runs the return distribution sweep on demand.
//
// Endpoint: POST /api/admin/returns/distribute
// Response: 200 OK with DistributionReport
// Error: 409 Conflict if a sweep is already running
func (h *AdminHandler) DistributeReturns(w http.ResponseWriter, r *http.Request) {
	report, err := h.distributionService.DistributeReturns(r.Context(), service.TriggerManual)
	if err != nil {
		response.RespondAppError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}
