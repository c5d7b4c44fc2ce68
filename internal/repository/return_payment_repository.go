package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

type ReturnPaymentRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewReturnPaymentRepository(db *sql.DB) *ReturnPaymentRepository {
	return &ReturnPaymentRepository{db: db}
}

// WithTx returns a new ReturnPaymentRepository scoped to the provided transaction.
func (r *ReturnPaymentRepository) WithTx(tx *sql.Tx) *ReturnPaymentRepository {
	return &ReturnPaymentRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ReturnPaymentRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *ReturnPaymentRepository) InsertReturnPayment(ctx context.Context, p *model.ReturnPayment) error {
	query := `
		INSERT INTO return_payment (id, investment_id, account_id, property_id,
		                            amount, period_start, period_end, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.InvestmentID,
		p.AccountID,
		p.PropertyID,
		p.Amount.String(),
		FormatTime(p.PeriodStart),
		FormatTime(p.PeriodEnd),
		FormatTime(p.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert return payment: %w", err)
	}
	return nil
}

// GetReturnPaymentsByInvestment returns the payments credited to an investment, oldest first.
func (r *ReturnPaymentRepository) GetReturnPaymentsByInvestment(ctx context.Context, investmentID string) ([]model.ReturnPayment, error) {
	query := `
		SELECT id, investment_id, account_id, property_id, amount, period_start, period_end, paid_at
		FROM return_payment
		WHERE investment_id = ?
		ORDER BY paid_at ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query return_payment table: %w", err)
	}
	defer rows.Close()

	payments := []model.ReturnPayment{}
	for rows.Next() {
		var p model.ReturnPayment
		var periodStartStr, periodEndStr, paidAtStr string
		if err := rows.Scan(
			&p.ID,
			&p.InvestmentID,
			&p.AccountID,
			&p.PropertyID,
			&p.Amount,
			&periodStartStr,
			&periodEndStr,
			&paidAtStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan return_payment table results: %w", err)
		}

		if p.PeriodStart, err = ParseTime(periodStartStr); err != nil {
			return nil, err
		}
		if p.PeriodEnd, err = ParseTime(periodEndStr); err != nil {
			return nil, err
		}
		if p.PaidAt, err = ParseTime(paidAtStr); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating return_payment table: %w", err)
	}
	return payments, nil
}

// SumReturnPayments totals the payments credited to an investment.
func (r *ReturnPaymentRepository) SumReturnPayments(ctx context.Context, investmentID string) (decimal.Decimal, int, error) {
	payments, err := r.GetReturnPaymentsByInvestment(ctx, investmentID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, len(payments), nil
}
