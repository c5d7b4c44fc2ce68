package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/config"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// PositionService maintains investment positions: one active holding per account and
// property, with its cost basis, return projections and ownership percentage.
type PositionService struct {
	investmentRepo *repository.InvestmentRepository
	cfg            config.LedgerConfig
}

// NewPositionService creates a new PositionService.
func NewPositionService(investmentRepo *repository.InvestmentRepository, cfg config.LedgerConfig) *PositionService {
	return &PositionService{
		investmentRepo: investmentRepo,
		cfg:            cfg,
	}
}

func (s *PositionService) repo(tx *sql.Tx) *repository.InvestmentRepository {
	if tx != nil {
		return s.investmentRepo.WithTx(tx)
	}
	return s.investmentRepo
}

// OpenOrAdd creates the account's holding in the property or tops up the existing one.
//
// A new holding records pricePerShare as its share price. A top-up keeps the first
// purchase price, adds the cost to investmentAmount and adds the incremental return
// projection for rented properties.
func (s *PositionService) OpenOrAdd(
	ctx context.Context,
	tx *sql.Tx,
	accountID string,
	property model.Property,
	shares int64,
	pricePerShare decimal.Decimal,
	now time.Time,
) (model.Investment, error) {
	if shares <= 0 {
		return model.Investment{}, fmt.Errorf("%w: %d", apperrors.ErrInvalidQuantity, shares)
	}
	repo := s.repo(tx)
	cost := pricePerShare.Mul(decimal.NewFromInt(shares))

	inv, err := repo.GetActiveInvestment(ctx, accountID, property.ID)
	switch {
	case errors.Is(err, apperrors.ErrInvestmentNotFound):
		inv = model.Investment{
			ID:               uuid.New().String(),
			AccountID:        accountID,
			PropertyID:       property.ID,
			NumOfShares:      shares,
			SharePrice:       pricePerShare,
			InvestmentAmount: cost,
			TotalReturns:     decimal.Zero,
			Status:           model.InvestmentActive,
			InvestmentDate:   now,
			LastPaymentDate:  now,
		}
		s.applyYield(&inv, property, shares)
		inv.TotalSharesPercentage = sharesPercentage(inv.NumOfShares, property.TotalShares)

		if err := repo.InsertInvestment(ctx, &inv); err != nil {
			return model.Investment{}, err
		}
		return inv, nil

	case err != nil:
		return model.Investment{}, err
	}

	inv.NumOfShares += shares
	inv.InvestmentAmount = inv.InvestmentAmount.Add(cost)
	s.applyYield(&inv, property, shares)
	inv.TotalSharesPercentage = sharesPercentage(inv.NumOfShares, property.TotalShares)

	if err := repo.UpdateInvestment(ctx, &inv); err != nil {
		return model.Investment{}, err
	}
	return inv, nil
}

// Reduce removes shares from a holding after an approved sale. The cost basis and
// the monthly/annual projections shrink pro-rata; the holding is finished once no
// shares remain. It returns the updated holding and the cost basis released.
func (s *PositionService) Reduce(
	ctx context.Context,
	tx *sql.Tx,
	investmentID string,
	property model.Property,
	shares int64,
) (model.Investment, decimal.Decimal, error) {
	if shares <= 0 {
		return model.Investment{}, decimal.Zero, fmt.Errorf("%w: %d", apperrors.ErrInvalidQuantity, shares)
	}
	repo := s.repo(tx)

	inv, err := repo.GetInvestment(ctx, investmentID)
	if err != nil {
		return model.Investment{}, decimal.Zero, err
	}
	if !inv.IsActive() || shares > inv.NumOfShares {
		return model.Investment{}, decimal.Zero, fmt.Errorf("%w: investment %s holds %d shares, %d requested",
			apperrors.ErrOverSell, investmentID, inv.NumOfShares, shares)
	}

	before := decimal.NewFromInt(inv.NumOfShares)
	remaining := inv.NumOfShares - shares
	ratio := decimal.NewFromInt(remaining).Div(before)

	newAmount := inv.InvestmentAmount.Mul(ratio).Round(2)
	released := inv.InvestmentAmount.Sub(newAmount)

	inv.NumOfShares = remaining
	inv.InvestmentAmount = newAmount
	inv.MonthlyReturns = inv.MonthlyReturns.Mul(ratio).Round(2)
	inv.AnnualReturns = inv.MonthlyReturns.Mul(twelve)
	inv.TotalSharesPercentage = sharesPercentage(remaining, property.TotalShares)
	s.applyYield(&inv, property, 0)
	if remaining == 0 {
		inv.Status = model.InvestmentFinished
	}

	if err := repo.UpdateInvestment(ctx, &inv); err != nil {
		return model.Investment{}, decimal.Zero, err
	}
	return inv, released, nil
}

// Accrue credits one period of returns to the holding: totalReturns grows by
// monthlyReturns and lastPaymentDate moves to paidAt.
func (s *PositionService) Accrue(ctx context.Context, tx *sql.Tx, inv model.Investment, paidAt time.Time) (model.Investment, error) {
	inv.TotalReturns = inv.TotalReturns.Add(inv.MonthlyReturns)
	inv.NetGains = inv.TotalReturns.Sub(inv.InvestmentAmount)
	inv.LastPaymentDate = paidAt

	if err := s.repo(tx).UpdateInvestment(ctx, &inv); err != nil {
		return model.Investment{}, err
	}
	return inv, nil
}

// applyYield updates the projections and net gains of inv for the property's yield
// model. addedShares is the number of shares just bought; it is zero after a sale.
func (s *PositionService) applyYield(inv *model.Investment, property model.Property, addedShares int64) {
	switch y := property.Yield().(type) {
	case model.Rented:
		if addedShares > 0 {
			increment := MonthlyReturn(y.RentalIncome, property.TotalShares, addedShares, s.cfg.RentalShareFactor)
			inv.MonthlyReturns = inv.MonthlyReturns.Add(increment)
			inv.AnnualReturns = inv.MonthlyReturns.Mul(twelve)
		}
		inv.NetGains = inv.TotalReturns.Sub(inv.InvestmentAmount)
	case model.Sold:
		inv.NetGains = y.PriceSold.Sub(inv.InvestmentAmount)
	case model.Unsold:
		inv.NetGains = inv.InvestmentAmount.Neg()
	}
}

// MonthlyReturn is the investor's monthly share of a rented property's income:
// rentalIncome / totalShares × shares × factor, rounded to cents.
func MonthlyReturn(rentalIncome decimal.Decimal, totalShares, shares int64, factor decimal.Decimal) decimal.Decimal {
	if totalShares <= 0 {
		return decimal.Zero
	}
	return rentalIncome.
		Div(decimal.NewFromInt(totalShares)).
		Mul(decimal.NewFromInt(shares)).
		Mul(factor).
		Round(2)
}

func sharesPercentage(shares, totalShares int64) decimal.Decimal {
	if totalShares <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(shares).Div(decimal.NewFromInt(totalShares)).Mul(hundred).Round(4)
}
