package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/testutil"
)

// TestInventoryService tests the share inventory bounds.
//
// WHY: availableShares must stay within [0, totalShares]. A reservation or release
// that would cross a bound is refused and leaves the inventory as it was.
func TestInventoryService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, total, available int64) (*service.InventoryService, string, func() int64) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		property := testutil.NewProperty().WithShares(total, available).Build(t, db)
		current := func() int64 { return testutil.GetProperty(t, db, property.ID).AvailableShares }
		return service.NewInventoryService(repository.NewPropertyRepository(db)), property.ID, current
	}

	t.Run("release beyond total shares is corruption and not clamped", func(t *testing.T) {
		svc, propertyID, available := setup(t, 100, 100)

		err := svc.Release(ctx, nil, propertyID, 1)

		if !errors.Is(err, apperrors.ErrInventoryCorruption) {
			t.Fatalf("Expected ErrInventoryCorruption, got %v", err)
		}
		if got := available(); got != 100 {
			t.Errorf("Expected 100 available shares, got %d", got)
		}
	})

	t.Run("release up to total shares succeeds", func(t *testing.T) {
		svc, propertyID, available := setup(t, 100, 90)

		if err := svc.Release(ctx, nil, propertyID, 10); err != nil {
			t.Fatalf("Release() returned unexpected error: %v", err)
		}
		if got := available(); got != 100 {
			t.Errorf("Expected 100 available shares, got %d", got)
		}
	})

	t.Run("over-reservation is refused", func(t *testing.T) {
		svc, propertyID, available := setup(t, 100, 5)

		err := svc.Reserve(ctx, nil, propertyID, 6)

		if !errors.Is(err, apperrors.ErrInsufficientInventory) {
			t.Fatalf("Expected ErrInsufficientInventory, got %v", err)
		}
		if got := available(); got != 5 {
			t.Errorf("Expected 5 available shares, got %d", got)
		}
	})

	t.Run("reserving the last shares leaves zero", func(t *testing.T) {
		svc, propertyID, available := setup(t, 100, 5)

		if err := svc.Reserve(ctx, nil, propertyID, 5); err != nil {
			t.Fatalf("Reserve() returned unexpected error: %v", err)
		}
		if got := available(); got != 0 {
			t.Errorf("Expected 0 available shares, got %d", got)
		}
	})

	t.Run("non-positive quantities are invalid", func(t *testing.T) {
		svc, propertyID, _ := setup(t, 100, 50)

		if err := svc.Reserve(ctx, nil, propertyID, 0); !errors.Is(err, apperrors.ErrInvalidQuantity) {
			t.Errorf("Reserve(0): expected ErrInvalidQuantity, got %v", err)
		}
		if err := svc.Release(ctx, nil, propertyID, -1); !errors.Is(err, apperrors.ErrInvalidQuantity) {
			t.Errorf("Release(-1): expected ErrInvalidQuantity, got %v", err)
		}
	})
}
