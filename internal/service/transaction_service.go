package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/database"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

// TransactionService is the ledger's audit log: it appends transactions and moves
// pending ones to a terminal status exactly once.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
}

// NewTransactionService creates a new TransactionService with the provided repository dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
	}
}

func (s *TransactionService) repo(tx *sql.Tx) *repository.TransactionRepository {
	if tx != nil {
		return s.transactionRepo.WithTx(tx)
	}
	return s.transactionRepo
}

// Record appends t and returns its new ID.
func (s *TransactionService) Record(ctx context.Context, tx *sql.Tx, t *model.Transaction) (string, error) {
	if t.NumOfShares <= 0 {
		return "", fmt.Errorf("%w: %d", apperrors.ErrInvalidQuantity, t.NumOfShares)
	}
	t.ID = ""
	if err := s.repo(tx).InsertTransaction(ctx, t); err != nil {
		return "", fmt.Errorf("failed to record %s transaction: %w", t.Type, err)
	}
	return t.ID, nil
}

// Transition moves a transaction from one status to another. It fails with
// apperrors.ErrInvalidTransition unless the stored status equals from, which is what
// keeps a pending sell from being settled twice.
func (s *TransactionService) Transition(
	ctx context.Context,
	tx *sql.Tx,
	transactionID string,
	from, to model.TransactionStatus,
	settlement model.Settlement,
) error {
	if from.IsTerminal() || to == from {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
	}
	return s.repo(tx).TransitionTransaction(ctx, transactionID, from, to, settlement)
}

// GetTransaction retrieves a single transaction. Only its owner or an admin may read it.
func (s *TransactionService) GetTransaction(ctx context.Context, caller model.Caller, transactionID string) (model.Transaction, error) {
	t, err := s.transactionRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return model.Transaction{}, database.Classify(err)
	}
	if t.AccountID != caller.AccountID && !caller.IsAdmin() {
		return model.Transaction{}, apperrors.ErrForbidden
	}
	return t, nil
}

// ListForAccount returns the account's transactions matching filters, in time order.
func (s *TransactionService) ListForAccount(ctx context.Context, accountID string, filters model.TransactionFilters) ([]model.Transaction, error) {
	transactions, err := s.transactionRepo.GetTransactionsByAccount(ctx, accountID, filters)
	if err != nil {
		return nil, database.Classify(err)
	}
	return transactions, nil
}
