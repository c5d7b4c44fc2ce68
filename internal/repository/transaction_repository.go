package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// Rows are append-only; the only update is the pending -> completed|failed transition.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionColumns = `
	id, account_id, investment_id, property_id, transaction_type, num_of_shares,
	price_per_share, total_amount, net_gain, status, transaction_date,
	settled_at, settled_by, admin_note
`

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var dateStr string
	var settledAt, settledBy, adminNote sql.NullString

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.InvestmentID,
		&t.PropertyID,
		&t.Type,
		&t.NumOfShares,
		&t.PricePerShare,
		&t.TotalAmount,
		&t.NetGain,
		&t.Status,
		&dateStr,
		&settledAt,
		&settledBy,
		&adminNote,
	)
	if err != nil {
		return model.Transaction{}, err
	}

	t.TransactionDate, err = ParseTime(dateStr)
	if err != nil || t.TransactionDate.IsZero() {
		return model.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if t.SettledAt, err = parseNullTime(settledAt); err != nil {
		return model.Transaction{}, err
	}
	t.SettledBy = settledBy.String
	t.AdminNote = adminNote.String

	return t, nil
}

// InsertTransaction appends a transaction. A missing ID or date is filled in.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `INSERT INTO "transaction" (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now().UTC()
	}

	var settledAt sql.NullString
	if t.SettledAt != nil {
		settledAt = sql.NullString{String: FormatTime(*t.SettledAt), Valid: true}
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.AccountID,
		t.InvestmentID,
		t.PropertyID,
		string(t.Type),
		t.NumOfShares,
		t.PricePerShare.String(),
		t.TotalAmount.String(),
		t.NetGain.String(),
		string(t.Status),
		FormatTime(t.TransactionDate),
		settledAt,
		nullString(t.SettledBy),
		nullString(t.AdminNote),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a single transaction by its ID.
// Returns apperrors.ErrTransactionNotFound if no transaction matches.
func (r *TransactionRepository) GetTransaction(ctx context.Context, transactionID string) (model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM "transaction" WHERE id = ?`

	t, err := scanTransaction(r.getQuerier().QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}
	return t, nil
}

// TransitionTransaction moves a transaction from one status to another and stamps the
// settlement metadata. The update only applies while the stored status equals from;
// otherwise apperrors.ErrInvalidTransition is returned and nothing changes.
func (r *TransactionRepository) TransitionTransaction(
	ctx context.Context,
	transactionID string,
	from, to model.TransactionStatus,
	settlement model.Settlement,
) error {
	query := `
		UPDATE "transaction"
		SET status = ?, settled_at = ?, settled_by = ?, admin_note = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		string(to),
		FormatTime(settlement.SettledAt),
		nullString(settlement.SettledBy),
		nullString(settlement.Note),
		transactionID,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if err := expectOne(result, apperrors.ErrInvalidTransition); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			return fmt.Errorf("%w: transaction %s is not %s", err, transactionID, from)
		}
		return err
	}
	return nil
}

// GetTransactionsByAccount returns the transactions of an account matching filters,
// in time order (oldest first unless filters.SortDir is "desc").
func (r *TransactionRepository) GetTransactionsByAccount(ctx context.Context, accountID string, filters model.TransactionFilters) ([]model.Transaction, error) {
	conditions := []string{"account_id = ?"}
	args := []any{accountID}

	if len(filters.Types) > 0 {
		conditions = append(conditions, "transaction_type IN ("+placeholders(len(filters.Types))+")")
		for _, t := range filters.Types {
			args = append(args, string(t))
		}
	}
	if len(filters.Statuses) > 0 {
		conditions = append(conditions, "status IN ("+placeholders(len(filters.Statuses))+")")
		for _, s := range filters.Statuses {
			args = append(args, string(s))
		}
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "transaction_date >= ?")
		args = append(args, FormatTime(*filters.StartDate))
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "transaction_date <= ?")
		args = append(args, FormatTime(*filters.EndDate))
	}

	order := "ASC"
	if filters.SortDir == "desc" {
		order = "DESC"
	}

	//nolint:gosec // G202: conditions and order are built from constants only
	query := `SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY transaction_date ` + order

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}
	return transactions, nil
}
