package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// AccountRepository provides access to the ledger columns of the account table.
type AccountRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a new AccountRepository scoped to the provided transaction.
func (r *AccountRepository) WithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *AccountRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetAccount retrieves an account by ID.
// Returns apperrors.ErrAccountNotFound if no account matches.
func (r *AccountRepository) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	query := `
		SELECT id, name, balance, version, updated_at
		FROM account
		WHERE id = ?
	`

	var a model.Account
	var updatedAt sql.NullString
	err := r.getQuerier().QueryRowContext(ctx, query, accountID).Scan(
		&a.ID,
		&a.Name,
		&a.Balance,
		&a.Version,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to query account: %w", err)
	}

	if updatedAt.Valid {
		a.UpdatedAt, err = ParseTime(updatedAt.String)
		if err != nil {
			return model.Account{}, err
		}
	}

	return a, nil
}

// InsertAccount creates an account row. The platform catalog owns accounts; this is
// used when provisioning ledger state for a new user.
func (r *AccountRepository) InsertAccount(ctx context.Context, a *model.Account) error {
	query := `
		INSERT INTO account (id, name, balance, version, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Balance.String(),
		a.Version,
		FormatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateBalance writes a new balance if the stored version still equals expectedVersion.
// A version mismatch returns apperrors.ErrConcurrentUpdate.
func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal, expectedVersion int64) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: balance of account %s would become %s", apperrors.ErrInsufficientFunds, accountID, balance)
	}

	query := `
		UPDATE account
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		balance.String(),
		FormatTime(time.Now()),
		accountID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	return expectOne(result, apperrors.ErrConcurrentUpdate)
}
