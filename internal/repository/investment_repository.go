package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// InvestmentRepository provides data access methods for the investment table.
type InvestmentRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewInvestmentRepository creates a new InvestmentRepository with the provided database connection.
func NewInvestmentRepository(db *sql.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

// WithTx returns a new InvestmentRepository scoped to the provided transaction.
func (r *InvestmentRepository) WithTx(tx *sql.Tx) *InvestmentRepository {
	return &InvestmentRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *InvestmentRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const investmentColumns = `
	id, account_id, property_id, num_of_shares, share_price, investment_amount,
	monthly_returns, annual_returns, total_returns, net_gains, total_shares_percentage,
	status, investment_date, last_payment_date, version, updated_at
`

func scanInvestment(row rowScanner) (model.Investment, error) {
	var i model.Investment
	var investmentDate, lastPaymentDate string
	var updatedAt sql.NullString

	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.PropertyID,
		&i.NumOfShares,
		&i.SharePrice,
		&i.InvestmentAmount,
		&i.MonthlyReturns,
		&i.AnnualReturns,
		&i.TotalReturns,
		&i.NetGains,
		&i.TotalSharesPercentage,
		&i.Status,
		&investmentDate,
		&lastPaymentDate,
		&i.Version,
		&updatedAt,
	)
	if err != nil {
		return model.Investment{}, err
	}

	if i.InvestmentDate, err = ParseTime(investmentDate); err != nil {
		return model.Investment{}, err
	}
	if i.LastPaymentDate, err = ParseTime(lastPaymentDate); err != nil {
		return model.Investment{}, err
	}
	if updatedAt.Valid {
		if i.UpdatedAt, err = ParseTime(updatedAt.String); err != nil {
			return model.Investment{}, err
		}
	}
	return i, nil
}

// GetInvestment retrieves an investment by ID regardless of its status.
// Returns apperrors.ErrInvestmentNotFound if no investment matches.
func (r *InvestmentRepository) GetInvestment(ctx context.Context, investmentID string) (model.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investment WHERE id = ?`

	i, err := scanInvestment(r.getQuerier().QueryRowContext(ctx, query, investmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Investment{}, apperrors.ErrInvestmentNotFound
	}
	if err != nil {
		return model.Investment{}, fmt.Errorf("failed to query investment: %w", err)
	}
	return i, nil
}

// GetActiveInvestment retrieves the active holding of an account in a property.
// Returns apperrors.ErrInvestmentNotFound if the account holds no active position.
func (r *InvestmentRepository) GetActiveInvestment(ctx context.Context, accountID, propertyID string) (model.Investment, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investment
		WHERE account_id = ? AND property_id = ? AND status = 'active'
	`

	i, err := scanInvestment(r.getQuerier().QueryRowContext(ctx, query, accountID, propertyID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Investment{}, apperrors.ErrInvestmentNotFound
	}
	if err != nil {
		return model.Investment{}, fmt.Errorf("failed to query investment: %w", err)
	}
	return i, nil
}

// InsertInvestment creates a new investment row.
func (r *InvestmentRepository) InsertInvestment(ctx context.Context, i *model.Investment) error {
	query := `INSERT INTO investment (` + investmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		i.ID,
		i.AccountID,
		i.PropertyID,
		i.NumOfShares,
		i.SharePrice.String(),
		i.InvestmentAmount.String(),
		i.MonthlyReturns.String(),
		i.AnnualReturns.String(),
		i.TotalReturns.String(),
		i.NetGains.String(),
		i.TotalSharesPercentage.String(),
		string(i.Status),
		FormatTime(i.InvestmentDate),
		FormatTime(i.LastPaymentDate),
		i.Version,
		FormatTime(i.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert investment: %w", err)
	}
	return nil
}

// UpdateInvestment writes every mutable column of i if the stored version still equals
// i.Version, and advances i.Version on success.
// A version mismatch returns apperrors.ErrConcurrentUpdate.
func (r *InvestmentRepository) UpdateInvestment(ctx context.Context, i *model.Investment) error {
	query := `
		UPDATE investment
		SET num_of_shares = ?,
		    investment_amount = ?,
		    monthly_returns = ?,
		    annual_returns = ?,
		    total_returns = ?,
		    net_gains = ?,
		    total_shares_percentage = ?,
		    status = ?,
		    last_payment_date = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ? AND version = ?
	`

	now := time.Now().UTC()
	result, err := r.getQuerier().ExecContext(ctx, query,
		i.NumOfShares,
		i.InvestmentAmount.String(),
		i.MonthlyReturns.String(),
		i.AnnualReturns.String(),
		i.TotalReturns.String(),
		i.NetGains.String(),
		i.TotalSharesPercentage.String(),
		string(i.Status),
		FormatTime(i.LastPaymentDate),
		FormatTime(now),
		i.ID,
		i.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	if err := expectOne(result, apperrors.ErrConcurrentUpdate); err != nil {
		return err
	}

	i.Version++
	i.UpdatedAt = now
	return nil
}

// ListActiveInvestments returns every active investment ordered by property, so callers
// can partition the result per property.
func (r *InvestmentRepository) ListActiveInvestments(ctx context.Context) ([]model.Investment, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investment
		WHERE status = 'active'
		ORDER BY property_id, investment_date
	`
	return r.list(ctx, query)
}

// ListInvestmentsByAccount returns every investment of an account, newest first.
func (r *InvestmentRepository) ListInvestmentsByAccount(ctx context.Context, accountID string) ([]model.Investment, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investment
		WHERE account_id = ?
		ORDER BY investment_date DESC
	`
	return r.list(ctx, query, accountID)
}

func (r *InvestmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Investment, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment table: %w", err)
	}
	defer rows.Close()

	investments := []model.Investment{}
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment table results: %w", err)
		}
		investments = append(investments, i)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment table: %w", err)
	}
	return investments, nil
}
