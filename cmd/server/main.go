package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/config"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/database"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/lease"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/notify"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/scheduler"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	// Open database connection
	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer db.Close()

	logging.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Sweep lease: redis when replicas share it, in-process otherwise
	var locker lease.Locker = lease.NewLocalLocker()
	if cfg.Redis.URL != "" {
		var client *redis.Client
		client, err = lease.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		locker = lease.NewRedisLocker(client)
		logging.Info().Msg("using redis for the distribution lease")
	}

	// Post-commit notifications
	var dispatcher notify.Dispatcher = notify.LogDispatcher{}
	if cfg.Notify.WebhookURL != "" {
		dispatcher = notify.NewWebhookDispatcher(cfg.Notify.WebhookURL, nil)
	}
	notifier := notify.NewNotifier(dispatcher, cfg.Notify.Timeout)

	identity, err := newIdentity(cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to configure identity tokens")
	}

	// Create repositories
	accountRepo := repository.NewAccountRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	investmentRepo := repository.NewInvestmentRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	realizedGainRepo := repository.NewRealizedGainRepository(db)
	returnPaymentRepo := repository.NewReturnPaymentRepository(db)
	depositRepo := repository.NewDepositRepository(db)

	// Create services; every writer shares one set of entity locks
	locks := service.NewEntityLocks()

	systemService := service.NewSystemService(db)
	transactionService := service.NewTransactionService(
		transactionRepo,
	)
	settlementService := service.NewSettlementService(
		db,
		cfg.Ledger,
		accountRepo,
		propertyRepo,
		investmentRepo,
		transactionRepo,
		realizedGainRepo,
		returnPaymentRepo,
		locks,
		notifier,
	)
	distributionService := service.NewDistributionService(
		db,
		cfg.Ledger,
		accountRepo,
		propertyRepo,
		investmentRepo,
		returnPaymentRepo,
		locks,
		locker,
		notifier,
	)
	depositService := service.NewDepositService(
		db,
		cfg.Ledger,
		accountRepo,
		depositRepo,
		locks,
		notifier,
	)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler.Spec, distributionService)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to create distribution scheduler")
		}
		sched.Start()
	}

	// Create router
	router := api.NewRouter(
		systemService,
		settlementService,
		transactionService,
		depositService,
		distributionService,
		identity,
		cfg,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server forced to shutdown")
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("distribution sweep did not finish before shutdown")
		}
	}
	notifier.Wait()

	logging.Info().Msg("server exited")
}

// newIdentity builds the token verifier. Without configured keys an ephemeral key is
// generated, so tokens do not survive a restart.
func newIdentity(cfg config.AuthConfig) (*middleware.Identity, error) {
	keys := cfg.Keys
	if keys == "" {
		key, err := middleware.GenerateKey()
		if err != nil {
			return nil, err
		}
		keys = key
		logging.Warn().Msg("AUTH_FERNET_KEYS not set; using an ephemeral key")
	}
	return middleware.NewIdentity(keys, cfg.TokenTTL)
}
