// Package api wires the ledger's HTTP surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/config"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	settlementService *service.SettlementService,
	transactionService *service.TransactionService,
	depositService *service.DepositService,
	distributionService *service.DistributionService,
	identity *custommiddleware.Identity,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Handle("/metrics", promhttp.Handler())

	systemHandler := handlers.NewSystemHandler(systemService)
	investmentHandler := handlers.NewInvestmentHandler(settlementService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, settlementService)
	depositHandler := handlers.NewDepositHandler(depositService)
	adminHandler := handlers.NewAdminHandler(distributionService)

	limit := custommiddleware.RateLimit(cfg.Server.RateLimit)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
		})

		// Everything below requires a caller identity.
		r.Group(func(r chi.Router) {
			r.Use(identity.Authenticate)

			r.Route("/investments/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", investmentHandler.GetInvestment)
				r.Get("/returns", investmentHandler.GetReturns)
				r.With(limit).Post("/", investmentHandler.MakeInvestment)
				r.With(limit).Post("/sell", investmentHandler.SellInvestment)
			})

			r.Route("/transactions/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.With(custommiddleware.RequireAdmin).Patch("/handle", transactionHandler.HandleTransaction)
			})

			r.Route("/accounts/me", func(r chi.Router) {
				r.Get("/investments", investmentHandler.MyInvestments)
				r.Get("/transactions", transactionHandler.MyTransactions)
			})

			r.Route("/deposits", func(r chi.Router) {
				r.With(limit).Post("/", depositHandler.RequestDeposit)
				r.With(custommiddleware.RequireAdmin, custommiddleware.ValidateUUIDMiddleware).
					Patch("/{uuid}/handle", depositHandler.HandleDeposit)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(custommiddleware.RequireAdmin)
				r.Post("/returns/distribute", adminHandler.DistributeReturns)
			})
		})
	})

	return r
}
