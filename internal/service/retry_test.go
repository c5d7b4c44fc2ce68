package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
)

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries concurrent updates until success", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, "test", 3, func(context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("update: %w", apperrors.ErrConcurrentUpdate)
			}
			return nil
		})

		if err != nil {
			t.Fatalf("withRetry() returned unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("Expected 3 calls, got %d", calls)
		}
	})

	t.Run("gives up as store unavailable", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, "test", 2, func(context.Context) error {
			calls++
			return apperrors.ErrConcurrentUpdate
		})

		if !errors.Is(err, apperrors.ErrStoreUnavailable) {
			t.Errorf("Expected ErrStoreUnavailable, got %v", err)
		}
		if calls != 3 {
			t.Errorf("Expected 3 calls, got %d", calls)
		}
	})

	t.Run("does not retry business errors", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, "test", 3, func(context.Context) error {
			calls++
			return apperrors.ErrInsufficientFunds
		})

		if !errors.Is(err, apperrors.ErrInsufficientFunds) {
			t.Errorf("Expected ErrInsufficientFunds, got %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call, got %d", calls)
		}
	})
}
