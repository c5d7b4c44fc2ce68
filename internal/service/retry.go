package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/metrics"
)

const retryBaseDelay = 10 * time.Millisecond

// withRetry runs fn and re-runs it after an optimistic-lock miss, at most maxRetries
// extra times with exponential backoff. Running out of retries surfaces as
// apperrors.ErrStoreUnavailable so the client may try again later.
func withRetry(ctx context.Context, operation string, maxRetries uint64, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBaseDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RecordRetry(operation)
			logging.Ctx(ctx).Debug().Str("operation", operation).Int("attempt", attempt).Msg("retrying after concurrent update")
		}

		err := fn(ctx)
		if errors.Is(err, apperrors.ErrConcurrentUpdate) {
			return retry.RetryableError(err)
		}
		return err
	})

	if errors.Is(err, apperrors.ErrConcurrentUpdate) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}
	return err
}
