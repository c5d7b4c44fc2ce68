package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/config"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/database"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/lease"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/metrics"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/notify"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

const (
	distributionLeaseKey = "distribute-returns"
	distributionLeaseTTL = 15 * time.Minute
)

// Sweep triggers, used for logging and metrics.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

type sweepOutcome int

const (
	outcomeCredited sweepOutcome = iota
	outcomeNotDue
	outcomeSkipped
	outcomeFailed
)

// DistributionService runs the periodic return distribution sweep.
type DistributionService struct {
	db             *sql.DB
	cfg            config.LedgerConfig
	accountRepo    *repository.AccountRepository
	propertyRepo   *repository.PropertyRepository
	investmentRepo *repository.InvestmentRepository
	paymentRepo    *repository.ReturnPaymentRepository
	inventory      *InventoryService
	positions      *PositionService
	locks          *EntityLocks
	locker         lease.Locker
	notifier       *notify.Notifier
	now            func() time.Time
}

// NewDistributionService creates a new DistributionService. locker guards against two
// replicas sweeping at once; notifier may be nil.
func NewDistributionService(
	db *sql.DB,
	cfg config.LedgerConfig,
	accountRepo *repository.AccountRepository,
	propertyRepo *repository.PropertyRepository,
	investmentRepo *repository.InvestmentRepository,
	paymentRepo *repository.ReturnPaymentRepository,
	locks *EntityLocks,
	locker lease.Locker,
	notifier *notify.Notifier,
) *DistributionService {
	return &DistributionService{
		db:             db,
		cfg:            cfg,
		accountRepo:    accountRepo,
		propertyRepo:   propertyRepo,
		investmentRepo: investmentRepo,
		paymentRepo:    paymentRepo,
		inventory:      NewInventoryService(propertyRepo),
		positions:      NewPositionService(investmentRepo, cfg),
		locks:          locks,
		locker:         locker,
		notifier:       notifier,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service's time source.
func (s *DistributionService) WithClock(now func() time.Time) *DistributionService {
	s.now = now
	return s
}

// DistributeReturns credits one period of returns to every active investment whose
// last payment is at least one distribution period old.
//
// Investments are grouped by property and the groups are processed in parallel; each
// investment is credited in its own database transaction, which also records the
// payment. An investment whose
// property or account no longer resolves is skipped, and one that fails is counted
// and logged, without aborting the rest of the sweep. Because lastPaymentDate moves
// to now on every credit, running the sweep twice within a period credits nothing
// the second time.
func (s *DistributionService) DistributeReturns(ctx context.Context, trigger string) (report model.DistributionReport, err error) {
	report.StartedAt = s.now()
	report.TotalCredited = decimal.Zero
	defer func() {
		report.FinishedAt = s.now()
		metrics.RecordDistribution(trigger, report.FinishedAt.Sub(report.StartedAt), report.Credited, report.Skipped, report.Failed, err)
	}()

	release, err := s.locker.Acquire(ctx, distributionLeaseKey, distributionLeaseTTL)
	if errors.Is(err, lease.ErrHeld) {
		return report, apperrors.ErrSweepInProgress
	}
	if err != nil {
		return report, fmt.Errorf("failed to acquire distribution lease: %w", err)
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			logging.Warn().Err(relErr).Msg("failed to release distribution lease")
		}
	}()

	investments, err := s.investmentRepo.ListActiveInvestments(ctx)
	if err != nil {
		return report, database.Classify(err)
	}

	byProperty := make(map[string][]model.Investment)
	order := []string{}
	for _, inv := range investments {
		if _, ok := byProperty[inv.PropertyID]; !ok {
			order = append(order, inv.PropertyID)
		}
		byProperty[inv.PropertyID] = append(byProperty[inv.PropertyID], inv)
	}

	now := report.StartedAt
	var mu sync.Mutex
	tally := func(outcome sweepOutcome, amount decimal.Decimal) {
		mu.Lock()
		defer mu.Unlock()
		report.Scanned++
		switch outcome {
		case outcomeCredited:
			report.Credited++
			report.TotalCredited = report.TotalCredited.Add(amount)
		case outcomeNotDue, outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
		}
	}

	workers := s.cfg.SweepWorkers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, propertyID := range order {
		group := byProperty[propertyID]
		g.Go(func() error {
			s.sweepProperty(gctx, propertyID, group, now, tally)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	logging.Info().
		Str("trigger", trigger).
		Int("scanned", report.Scanned).
		Int("credited", report.Credited).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Str("total_credited", report.TotalCredited.String()).
		Msg("return distribution finished")

	return report, nil
}

func (s *DistributionService) sweepProperty(
	ctx context.Context,
	propertyID string,
	investments []model.Investment,
	now time.Time,
	tally func(sweepOutcome, decimal.Decimal),
) {
	// A property whose inventory no longer balances is not paid out until someone
	// has looked at it.
	if err := s.inventory.CheckConservation(ctx, nil, propertyID); errors.Is(err, apperrors.ErrInventoryCorruption) {
		logging.Error().Err(err).Str("property_id", propertyID).Int("investments", len(investments)).
			Msg("skipping property with inconsistent share inventory")
		for range investments {
			tally(outcomeFailed, decimal.Zero)
		}
		return
	}

	for _, inv := range investments {
		outcome, amount, err := s.distributeOne(ctx, inv, now)
		switch {
		case outcome == outcomeSkipped:
			logging.Warn().Err(err).Str("investment_id", inv.ID).Str("property_id", propertyID).
				Msg("skipping investment with unresolvable references")
		case outcome == outcomeFailed:
			logging.Error().Err(err).Str("investment_id", inv.ID).Str("property_id", propertyID).
				Msg("failed to distribute returns")
		case outcome == outcomeCredited:
			s.notifier.Notify(notify.Event{
				Type:        notify.EventReturnsCredited,
				AccountID:   inv.AccountID,
				ReferenceID: inv.ID,
				Amount:      amount,
				OccurredAt:  now,
			})
		}
		tally(outcome, amount)
	}
}

// distributeOne credits a single investment if it is due. The listed copy is only used
// to find the entities to lock; the investment is read again inside the transaction.
func (s *DistributionService) distributeOne(ctx context.Context, listed model.Investment, now time.Time) (sweepOutcome, decimal.Decimal, error) {
	investmentID := listed.ID
	unlock := s.locks.Lock(LockScope{AccountID: listed.AccountID, InvestmentID: investmentID})
	defer unlock()

	outcome := outcomeNotDue
	var credited decimal.Decimal
	err := withRetry(ctx, "distribute_returns", s.cfg.MaxRetries, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			outcome = outcomeNotDue

			inv, err := s.investmentRepo.WithTx(tx).GetInvestment(ctx, investmentID)
			if err != nil {
				return err
			}
			if !inv.IsActive() || !inv.MonthlyReturns.IsPositive() {
				return nil
			}
			if now.Before(s.cfg.DistributionPeriod.After(inv.LastPaymentDate)) {
				return nil
			}

			if _, err := s.propertyRepo.WithTx(tx).GetProperty(ctx, inv.PropertyID); err != nil {
				return err
			}
			account, err := s.accountRepo.WithTx(tx).GetAccount(ctx, inv.AccountID)
			if err != nil {
				return err
			}

			if err := s.accountRepo.WithTx(tx).UpdateBalance(ctx, account.ID, account.Balance.Add(inv.MonthlyReturns), account.Version); err != nil {
				return err
			}
			if _, err := s.positions.Accrue(ctx, tx, inv, now); err != nil {
				return err
			}
			err = s.paymentRepo.WithTx(tx).InsertReturnPayment(ctx, &model.ReturnPayment{
				InvestmentID: inv.ID,
				AccountID:    inv.AccountID,
				PropertyID:   inv.PropertyID,
				Amount:       inv.MonthlyReturns,
				PeriodStart:  inv.LastPaymentDate,
				PeriodEnd:    now,
				PaidAt:       now,
			})
			if err != nil {
				return err
			}

			outcome = outcomeCredited
			credited = inv.MonthlyReturns
			return nil
		})
	})

	switch {
	case err == nil:
		return outcome, credited, nil
	case errors.Is(err, apperrors.ErrPropertyNotFound), errors.Is(err, apperrors.ErrAccountNotFound):
		return outcomeSkipped, decimal.Zero, err
	default:
		return outcomeFailed, decimal.Zero, err
	}
}
