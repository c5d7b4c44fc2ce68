package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

type RealizedGainRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRealizedGainRepository(db *sql.DB) *RealizedGainRepository {
	return &RealizedGainRepository{db: db}
}

// WithTx returns a new RealizedGainRepository scoped to the provided transaction.
func (r *RealizedGainRepository) WithTx(tx *sql.Tx) *RealizedGainRepository {
	return &RealizedGainRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *RealizedGainRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RealizedGainRepository) InsertRealizedGain(ctx context.Context, g *model.RealizedGain) error {
	query := `
		INSERT INTO realized_gain (id, transaction_id, investment_id, account_id, property_id,
		                           shares_sold, cost_basis, sale_proceeds, realized_gain, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		g.ID,
		g.TransactionID,
		g.InvestmentID,
		g.AccountID,
		g.PropertyID,
		g.SharesSold,
		g.CostBasis.String(),
		g.SaleProceeds.String(),
		g.RealizedGain.String(),
		FormatTime(g.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert realized gain: %w", err)
	}
	return nil
}

// GetRealizedGainByTransaction returns the realized gain recorded for a settled sell,
// or false if the transaction has none.
func (r *RealizedGainRepository) GetRealizedGainByTransaction(ctx context.Context, transactionID string) (model.RealizedGain, bool, error) {
	query := `
		SELECT id, transaction_id, investment_id, account_id, property_id,
		       shares_sold, cost_basis, sale_proceeds, realized_gain, created_at
		FROM realized_gain
		WHERE transaction_id = ?
	`

	var g model.RealizedGain
	var createdAtStr string
	err := r.getQuerier().QueryRowContext(ctx, query, transactionID).Scan(
		&g.ID,
		&g.TransactionID,
		&g.InvestmentID,
		&g.AccountID,
		&g.PropertyID,
		&g.SharesSold,
		&g.CostBasis,
		&g.SaleProceeds,
		&g.RealizedGain,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RealizedGain{}, false, nil
	}
	if err != nil {
		return model.RealizedGain{}, false, fmt.Errorf("failed to query realized gain: %w", err)
	}

	g.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.RealizedGain{}, false, err
	}
	return g, true, nil
}
