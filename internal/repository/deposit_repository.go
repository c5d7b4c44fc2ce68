package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// DepositRepository provides data access methods for the deposit table.
type DepositRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewDepositRepository creates a new DepositRepository with the provided database connection.
func NewDepositRepository(db *sql.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// WithTx returns a new DepositRepository scoped to the provided transaction.
func (r *DepositRepository) WithTx(tx *sql.Tx) *DepositRepository {
	return &DepositRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *DepositRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *DepositRepository) InsertDeposit(ctx context.Context, d *model.Deposit) error {
	query := `
		INSERT INTO deposit (id, account_id, amount, method, status, requested_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.RequestedAt.IsZero() {
		d.RequestedAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		d.ID,
		d.AccountID,
		d.Amount.String(),
		string(d.Method),
		string(d.Status),
		FormatTime(d.RequestedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}
	return nil
}

// GetDeposit retrieves a deposit request by ID.
// Returns apperrors.ErrDepositNotFound if no deposit matches.
func (r *DepositRepository) GetDeposit(ctx context.Context, depositID string) (model.Deposit, error) {
	query := `
		SELECT id, account_id, amount, method, status, requested_at, settled_at, settled_by
		FROM deposit
		WHERE id = ?
	`

	var d model.Deposit
	var requestedAt string
	var settledAt, settledBy sql.NullString
	err := r.getQuerier().QueryRowContext(ctx, query, depositID).Scan(
		&d.ID,
		&d.AccountID,
		&d.Amount,
		&d.Method,
		&d.Status,
		&requestedAt,
		&settledAt,
		&settledBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Deposit{}, apperrors.ErrDepositNotFound
	}
	if err != nil {
		return model.Deposit{}, fmt.Errorf("failed to query deposit: %w", err)
	}

	if d.RequestedAt, err = ParseTime(requestedAt); err != nil {
		return model.Deposit{}, err
	}
	if d.SettledAt, err = parseNullTime(settledAt); err != nil {
		return model.Deposit{}, err
	}
	d.SettledBy = settledBy.String

	return d, nil
}

// TransitionDeposit settles a pending deposit. The update only applies while the stored
// status equals from; otherwise apperrors.ErrInvalidTransition is returned.
func (r *DepositRepository) TransitionDeposit(ctx context.Context, depositID string, from, to model.DepositStatus, settledBy string, settledAt time.Time) error {
	query := `
		UPDATE deposit
		SET status = ?, settled_at = ?, settled_by = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		string(to),
		FormatTime(settledAt),
		nullString(settledBy),
		depositID,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update deposit status: %w", err)
	}
	return expectOne(result, apperrors.ErrInvalidTransition)
}
