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
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/notify"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

// MinimumDeposit is the smallest amount an account may request to deposit.
var MinimumDeposit = decimal.NewFromInt(1000)

// DepositService handles balance top-up requests and their admin settlement.
type DepositService struct {
	db          *sql.DB
	cfg         config.LedgerConfig
	accountRepo *repository.AccountRepository
	depositRepo *repository.DepositRepository
	locks       *EntityLocks
	notifier    *notify.Notifier
	now         func() time.Time
}

// NewDepositService creates a new DepositService. notifier may be nil.
func NewDepositService(
	db *sql.DB,
	cfg config.LedgerConfig,
	accountRepo *repository.AccountRepository,
	depositRepo *repository.DepositRepository,
	locks *EntityLocks,
	notifier *notify.Notifier,
) *DepositService {
	return &DepositService{
		db:          db,
		cfg:         cfg,
		accountRepo: accountRepo,
		depositRepo: depositRepo,
		locks:       locks,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RequestDeposit files a pending deposit for the caller's account.
func (s *DepositService) RequestDeposit(ctx context.Context, caller model.Caller, amount decimal.Decimal, method model.DepositMethod) (model.Deposit, error) {
	if amount.LessThan(MinimumDeposit) {
		return model.Deposit{}, fmt.Errorf("%w: minimum deposit is %s", apperrors.ErrInvalidAmount, MinimumDeposit)
	}
	switch method {
	case model.DepositInstaPay, model.DepositVodafoneCash, model.DepositBankTransfer:
	default:
		return model.Deposit{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidDepositMethod, method)
	}

	deposit := model.Deposit{
		AccountID:   caller.AccountID,
		Amount:      amount,
		Method:      method,
		Status:      model.DepositPending,
		RequestedAt: s.now(),
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.accountRepo.WithTx(tx).GetAccount(ctx, caller.AccountID); err != nil {
			return err
		}
		return s.depositRepo.WithTx(tx).InsertDeposit(ctx, &deposit)
	})
	if err != nil {
		return model.Deposit{}, err
	}

	logging.Ctx(ctx).Info().
		Str("account_id", caller.AccountID).
		Str("deposit_id", deposit.ID).
		Str("amount", amount.String()).
		Str("method", string(method)).
		Msg("deposit requested")

	return deposit, nil
}

// SettleDeposit applies an admin decision to a pending deposit. Approve marks it paid
// and credits the account; reject marks it declined. A deposit is settled at most once.
func (s *DepositService) SettleDeposit(ctx context.Context, admin model.Caller, depositID string, decision model.Decision) (model.Deposit, error) {
	if !admin.IsAdmin() {
		return model.Deposit{}, apperrors.ErrForbidden
	}

	to := model.DepositDeclined
	switch decision {
	case model.DecisionApprove:
		to = model.DepositPaid
	case model.DecisionReject:
	default:
		return model.Deposit{}, fmt.Errorf("%w: unknown decision %q", apperrors.ErrInvalidTransition, decision)
	}

	pending, err := s.depositRepo.GetDeposit(ctx, depositID)
	if err != nil {
		return model.Deposit{}, database.Classify(err)
	}
	if pending.Status != model.DepositPending {
		return model.Deposit{}, fmt.Errorf("%w: deposit %s is %s", apperrors.ErrAlreadySettled, depositID, pending.Status)
	}

	unlock := s.locks.Lock(LockScope{AccountID: pending.AccountID})
	defer unlock()

	var settled model.Deposit
	err = withRetry(ctx, "settle_deposit", s.cfg.MaxRetries, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			settledAt := s.now()

			d, err := s.depositRepo.WithTx(tx).GetDeposit(ctx, depositID)
			if err != nil {
				return err
			}

			err = s.depositRepo.WithTx(tx).TransitionDeposit(ctx, depositID, model.DepositPending, to, admin.AccountID, settledAt)
			if errors.Is(err, apperrors.ErrInvalidTransition) {
				return fmt.Errorf("%w: %w", apperrors.ErrAlreadySettled, err)
			}
			if err != nil {
				return err
			}

			if to == model.DepositPaid {
				account, err := s.accountRepo.WithTx(tx).GetAccount(ctx, d.AccountID)
				if err != nil {
					return err
				}
				if err := s.accountRepo.WithTx(tx).UpdateBalance(ctx, account.ID, account.Balance.Add(d.Amount), account.Version); err != nil {
					return err
				}
			}

			d.Status = to
			d.SettledAt = &settledAt
			d.SettledBy = admin.AccountID
			settled = d
			return nil
		})
	})
	if err != nil {
		return model.Deposit{}, err
	}

	logging.Ctx(ctx).Info().
		Str("admin_id", admin.AccountID).
		Str("decision", string(decision)).
		Str("deposit_id", depositID).
		Str("account_id", settled.AccountID).
		Time("settled_at", *settled.SettledAt).
		Msg("deposit settled")

	eventType := notify.EventDepositPaid
	if to == model.DepositDeclined {
		eventType = notify.EventDepositDeclined
	}
	s.notifier.Notify(notify.Event{
		Type:        eventType,
		AccountID:   settled.AccountID,
		ReferenceID: settled.ID,
		Amount:      settled.Amount,
	})

	return settled, nil
}
