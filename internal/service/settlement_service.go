package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/config"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/database"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/metrics"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/notify"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

// SettlementService orchestrates every economic event on the ledger: purchases, sell
// requests and their admin settlement. Each operation runs in a single database
// transaction, so either all of its writes take effect or none do.
type SettlementService struct {
	db                *sql.DB
	cfg               config.LedgerConfig
	accountRepo       *repository.AccountRepository
	propertyRepo      *repository.PropertyRepository
	investmentRepo    *repository.InvestmentRepository
	transactionRepo   *repository.TransactionRepository
	realizedGainRepo  *repository.RealizedGainRepository
	returnPaymentRepo *repository.ReturnPaymentRepository
	inventory         *InventoryService
	positions         *PositionService
	transactions      *TransactionService
	locks             *EntityLocks
	notifier          *notify.Notifier
	now               func() time.Time
}

// NewSettlementService creates a new SettlementService with the provided dependencies.
// notifier may be nil.
func NewSettlementService(
	db *sql.DB,
	cfg config.LedgerConfig,
	accountRepo *repository.AccountRepository,
	propertyRepo *repository.PropertyRepository,
	investmentRepo *repository.InvestmentRepository,
	transactionRepo *repository.TransactionRepository,
	realizedGainRepo *repository.RealizedGainRepository,
	returnPaymentRepo *repository.ReturnPaymentRepository,
	locks *EntityLocks,
	notifier *notify.Notifier,
) *SettlementService {
	return &SettlementService{
		db:                db,
		cfg:               cfg,
		accountRepo:       accountRepo,
		propertyRepo:      propertyRepo,
		investmentRepo:    investmentRepo,
		transactionRepo:   transactionRepo,
		realizedGainRepo:  realizedGainRepo,
		returnPaymentRepo: returnPaymentRepo,
		inventory:         NewInventoryService(propertyRepo),
		positions:         NewPositionService(investmentRepo, cfg),
		transactions:      NewTransactionService(transactionRepo),
		locks:             locks,
		notifier:          notifier,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service's time source.
func (s *SettlementService) WithClock(now func() time.Time) *SettlementService {
	s.now = now
	return s
}

// MakeInvestment buys shares of a property for an account at the property's current
// price. Inventory, funds and existence are checked before anything is written; the
// reservation, debit, position upsert and completed "investing" transaction then
// commit together. Returns the created or topped-up investment.
func (s *SettlementService) MakeInvestment(ctx context.Context, accountID, propertyID string, shares int64) (inv model.Investment, err error) {
	start := time.Now()
	defer func() { metrics.RecordSettlement("make_investment", time.Since(start), err) }()

	if shares <= 0 {
		return model.Investment{}, fmt.Errorf("%w: shares must be positive, got %d", apperrors.ErrInvalidQuantity, shares)
	}

	unlock := s.locks.Lock(LockScope{AccountID: accountID, PropertyID: propertyID})
	defer unlock()

	var txn model.Transaction
	err = withRetry(ctx, "make_investment", s.cfg.MaxRetries, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			property, err := s.propertyRepo.WithTx(tx).GetProperty(ctx, propertyID)
			if err != nil {
				return err
			}
			account, err := s.accountRepo.WithTx(tx).GetAccount(ctx, accountID)
			if err != nil {
				return err
			}

			if shares > property.AvailableShares {
				return fmt.Errorf("%w: %d requested, %d available", apperrors.ErrInsufficientInventory, shares, property.AvailableShares)
			}
			price := property.PricePerShare
			amount := price.Mul(decimal.NewFromInt(shares))
			if account.Balance.LessThan(amount) {
				return fmt.Errorf("%w: balance %s, required %s", apperrors.ErrInsufficientFunds, account.Balance, amount)
			}

			if err := s.inventory.Reserve(ctx, tx, propertyID, shares); err != nil {
				return err
			}
			if err := s.accountRepo.WithTx(tx).UpdateBalance(ctx, accountID, account.Balance.Sub(amount), account.Version); err != nil {
				return err
			}

			now := s.now()
			inv, err = s.positions.OpenOrAdd(ctx, tx, accountID, property, shares, price, now)
			if err != nil {
				return err
			}

			txn = model.Transaction{
				AccountID:       accountID,
				InvestmentID:    inv.ID,
				PropertyID:      propertyID,
				Type:            model.TransactionInvesting,
				NumOfShares:     shares,
				PricePerShare:   price,
				TotalAmount:     amount,
				NetGain:         inv.NetGains,
				Status:          model.TransactionCompleted,
				TransactionDate: now,
			}
			_, err = s.transactions.Record(ctx, tx, &txn)
			return err
		})
	})
	if err != nil {
		return model.Investment{}, err
	}

	logging.Ctx(ctx).Info().
		Str("account_id", accountID).
		Str("property_id", propertyID).
		Str("investment_id", inv.ID).
		Str("transaction_id", txn.ID).
		Int64("shares", shares).
		Str("amount", txn.TotalAmount.String()).
		Msg("investment made")

	s.notifier.Notify(notify.Event{
		Type:        notify.EventInvestmentMade,
		AccountID:   accountID,
		ReferenceID: txn.ID,
		Amount:      txn.TotalAmount,
		Shares:      shares,
	})

	return inv, nil
}

// SellInvestment files a sell request for part or all of a holding at the property's
// latest price. It records a pending "selling" transaction and nothing else: the
// shares stay with the investment and no money moves until an admin settles it.
func (s *SettlementService) SellInvestment(ctx context.Context, caller model.Caller, investmentID string, sharesToSell int64) (txn model.Transaction, err error) {
	start := time.Now()
	defer func() { metrics.RecordSettlement("sell_investment", time.Since(start), err) }()

	unlock := s.locks.Lock(LockScope{AccountID: caller.AccountID, InvestmentID: investmentID})
	defer unlock()

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		inv, err := s.investmentRepo.WithTx(tx).GetInvestment(ctx, investmentID)
		if err != nil {
			return err
		}
		if inv.AccountID != caller.AccountID {
			return apperrors.ErrForbidden
		}
		if sharesToSell <= 0 || sharesToSell > inv.NumOfShares || !inv.IsActive() {
			return fmt.Errorf("%w: %d requested, investment holds %d", apperrors.ErrInvalidQuantity, sharesToSell, inv.NumOfShares)
		}

		price, err := s.propertyRepo.WithTx(tx).LatestPrice(ctx, inv.PropertyID)
		if err != nil {
			return err
		}

		txn = model.Transaction{
			AccountID:       inv.AccountID,
			InvestmentID:    inv.ID,
			PropertyID:      inv.PropertyID,
			Type:            model.TransactionSelling,
			NumOfShares:     sharesToSell,
			PricePerShare:   price,
			TotalAmount:     price.Mul(decimal.NewFromInt(sharesToSell)),
			NetGain:         inv.NetGains,
			Status:          model.TransactionPending,
			TransactionDate: s.now(),
		}
		_, err = s.transactions.Record(ctx, tx, &txn)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}

	logging.Ctx(ctx).Info().
		Str("account_id", caller.AccountID).
		Str("investment_id", investmentID).
		Str("transaction_id", txn.ID).
		Int64("shares", sharesToSell).
		Str("amount", txn.TotalAmount.String()).
		Msg("sell requested")

	s.notifier.Notify(notify.Event{
		Type:        notify.EventSellRequested,
		AccountID:   txn.AccountID,
		ReferenceID: txn.ID,
		Amount:      txn.TotalAmount,
		Shares:      sharesToSell,
	})

	return txn, nil
}

// SettleSell applies an admin decision to a pending sell request.
//
// Approve credits the account with the transaction's total amount, returns the shares
// to the property's inventory, reduces the investment and records the realized gain.
// Reject only marks the transaction failed. Either way the transaction leaves pending
// exactly once; a second call fails with apperrors.ErrAlreadySettled.
func (s *SettlementService) SettleSell(
	ctx context.Context,
	admin model.Caller,
	transactionID string,
	decision model.Decision,
	note string,
) (txn model.Transaction, err error) {
	start := time.Now()
	defer func() { metrics.RecordSettlement("settle_sell", time.Since(start), err) }()

	if !admin.IsAdmin() {
		return model.Transaction{}, apperrors.ErrForbidden
	}
	if decision != model.DecisionApprove && decision != model.DecisionReject {
		return model.Transaction{}, fmt.Errorf("%w: unknown decision %q", apperrors.ErrInvalidTransition, decision)
	}

	pending, err := s.transactionRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return model.Transaction{}, database.Classify(err)
	}
	if pending.Type != model.TransactionSelling {
		return model.Transaction{}, apperrors.ErrNotSellTransaction
	}
	if pending.Status != model.TransactionPending {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s is %s", apperrors.ErrAlreadySettled, transactionID, pending.Status)
	}

	unlock := s.locks.Lock(LockScope{
		AccountID:    pending.AccountID,
		PropertyID:   pending.PropertyID,
		InvestmentID: pending.InvestmentID,
	})
	defer unlock()

	settlement := model.Settlement{SettledBy: admin.AccountID, Note: note}
	err = withRetry(ctx, "settle_sell", s.cfg.MaxRetries, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			settlement.SettledAt = s.now()

			t, err := s.transactionRepo.WithTx(tx).GetTransaction(ctx, transactionID)
			if err != nil {
				return err
			}
			if t.Status != model.TransactionPending {
				return fmt.Errorf("%w: transaction %s is %s", apperrors.ErrAlreadySettled, transactionID, t.Status)
			}

			if decision == model.DecisionReject {
				if err := s.transition(ctx, tx, t.ID, model.TransactionFailed, settlement); err != nil {
					return err
				}
				t.Status = model.TransactionFailed
			} else {
				if err := s.approve(ctx, tx, t, settlement); err != nil {
					return err
				}
				t.Status = model.TransactionCompleted
			}

			settledAt := settlement.SettledAt
			t.SettledAt = &settledAt
			t.SettledBy = settlement.SettledBy
			t.AdminNote = settlement.Note
			txn = t
			return nil
		})
	})
	if err != nil {
		return model.Transaction{}, err
	}

	logging.Ctx(ctx).Info().
		Str("admin_id", admin.AccountID).
		Str("decision", string(decision)).
		Str("transaction_id", txn.ID).
		Str("account_id", txn.AccountID).
		Time("settled_at", settlement.SettledAt).
		Msg("sell request settled")

	eventType := notify.EventSellApproved
	if decision == model.DecisionReject {
		eventType = notify.EventSellRejected
	}
	s.notifier.Notify(notify.Event{
		Type:        eventType,
		AccountID:   txn.AccountID,
		ReferenceID: txn.ID,
		Amount:      txn.TotalAmount,
		Shares:      txn.NumOfShares,
	})

	return txn, nil
}

// approve applies the money and share movements of an approved sell inside tx.
func (s *SettlementService) approve(ctx context.Context, tx *sql.Tx, t model.Transaction, settlement model.Settlement) error {
	inv, err := s.investmentRepo.WithTx(tx).GetInvestment(ctx, t.InvestmentID)
	if err != nil {
		return err
	}
	account, err := s.accountRepo.WithTx(tx).GetAccount(ctx, t.AccountID)
	if err != nil {
		return err
	}
	property, err := s.propertyRepo.WithTx(tx).GetProperty(ctx, t.PropertyID)
	if err != nil {
		return err
	}

	// No escrow: the holding may have shrunk below the request since it was filed.
	if t.NumOfShares > inv.NumOfShares || !inv.IsActive() {
		return fmt.Errorf("%w: investment %s holds %d shares, request is for %d",
			apperrors.ErrOverSell, inv.ID, inv.NumOfShares, t.NumOfShares)
	}

	if err := s.transition(ctx, tx, t.ID, model.TransactionCompleted, settlement); err != nil {
		return err
	}
	if err := s.accountRepo.WithTx(tx).UpdateBalance(ctx, account.ID, account.Balance.Add(t.TotalAmount), account.Version); err != nil {
		return err
	}
	if err := s.inventory.Release(ctx, tx, property.ID, t.NumOfShares); err != nil {
		return err
	}

	_, costBasis, err := s.positions.Reduce(ctx, tx, inv.ID, property, t.NumOfShares)
	if err != nil {
		return err
	}

	return s.realizedGainRepo.WithTx(tx).InsertRealizedGain(ctx, &model.RealizedGain{
		TransactionID: t.ID,
		InvestmentID:  inv.ID,
		AccountID:     account.ID,
		PropertyID:    property.ID,
		SharesSold:    t.NumOfShares,
		CostBasis:     costBasis,
		SaleProceeds:  t.TotalAmount,
		RealizedGain:  t.TotalAmount.Sub(costBasis),
		CreatedAt:     settlement.SettledAt,
	})
}

func (s *SettlementService) transition(ctx context.Context, tx *sql.Tx, transactionID string, to model.TransactionStatus, settlement model.Settlement) error {
	err := s.transactions.Transition(ctx, tx, transactionID, model.TransactionPending, to, settlement)
	if errors.Is(err, apperrors.ErrInvalidTransition) {
		return fmt.Errorf("%w: %w", apperrors.ErrAlreadySettled, err)
	}
	return err
}

// GetInvestment returns a holding with the property's latest price and the variation
// against the first purchase price. Only the owner or an admin may read it.
func (s *SettlementService) GetInvestment(ctx context.Context, caller model.Caller, investmentID string) (model.InvestmentDetail, error) {
	inv, err := s.investmentRepo.GetInvestment(ctx, investmentID)
	if err != nil {
		return model.InvestmentDetail{}, database.Classify(err)
	}
	if inv.AccountID != caller.AccountID && !caller.IsAdmin() {
		return model.InvestmentDetail{}, apperrors.ErrForbidden
	}

	property, err := s.propertyRepo.GetProperty(ctx, inv.PropertyID)
	if err != nil {
		return model.InvestmentDetail{}, database.Classify(err)
	}
	latest, err := s.propertyRepo.LatestPrice(ctx, inv.PropertyID)
	if err != nil {
		return model.InvestmentDetail{}, database.Classify(err)
	}

	return model.InvestmentDetail{
		Investment:          inv,
		PropertyTitle:       property.Title,
		LatestSharePrice:    latest,
		SharePriceVariation: latest.Sub(inv.SharePrice),
	}, nil
}

// GetReturns summarises what a holding has earned, with every payment credited to it.
// Projections are only reported for rented properties.
func (s *SettlementService) GetReturns(ctx context.Context, caller model.Caller, investmentID string) (model.InvestmentReturns, error) {
	inv, err := s.investmentRepo.GetInvestment(ctx, investmentID)
	if err != nil {
		return model.InvestmentReturns{}, database.Classify(err)
	}
	if inv.AccountID != caller.AccountID && !caller.IsAdmin() {
		return model.InvestmentReturns{}, apperrors.ErrForbidden
	}

	property, err := s.propertyRepo.GetProperty(ctx, inv.PropertyID)
	if err != nil {
		return model.InvestmentReturns{}, database.Classify(err)
	}

	payments, err := s.returnPaymentRepo.GetReturnPaymentsByInvestment(ctx, inv.ID)
	if err != nil {
		return model.InvestmentReturns{}, database.Classify(err)
	}

	returns := model.InvestmentReturns{
		InvestmentID:          inv.ID,
		TotalReturns:          inv.TotalReturns,
		NetGains:              inv.NetGains,
		TotalSharesPercentage: inv.TotalSharesPercentage,
		LastPaymentDate:       inv.LastPaymentDate,
		Payments:              payments,
	}
	if _, rented := property.Yield().(model.Rented); rented {
		monthly, annual := inv.MonthlyReturns, inv.AnnualReturns
		returns.MonthlyReturns = &monthly
		returns.AnnualReturns = &annual
	}
	return returns, nil
}

// ListInvestments returns every holding of the account, newest first.
func (s *SettlementService) ListInvestments(ctx context.Context, accountID string) ([]model.Investment, error) {
	investments, err := s.investmentRepo.ListInvestmentsByAccount(ctx, accountID)
	if err != nil {
		return nil, database.Classify(err)
	}
	return investments, nil
}
