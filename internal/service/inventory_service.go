package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/repository"
)

// InventoryService guards a property's share inventory: availableShares never drops
// below zero and never rises above totalShares.
type InventoryService struct {
	propertyRepo *repository.PropertyRepository
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(propertyRepo *repository.PropertyRepository) *InventoryService {
	return &InventoryService{propertyRepo: propertyRepo}
}

func (s *InventoryService) repo(tx *sql.Tx) *repository.PropertyRepository {
	if tx != nil {
		return s.propertyRepo.WithTx(tx)
	}
	return s.propertyRepo
}

// Reserve takes shares out of the property's available inventory.
// Fails with apperrors.ErrInsufficientInventory if fewer shares are available.
func (s *InventoryService) Reserve(ctx context.Context, tx *sql.Tx, propertyID string, shares int64) error {
	if shares <= 0 {
		return fmt.Errorf("%w: cannot reserve %d shares", apperrors.ErrInvalidQuantity, shares)
	}
	if err := s.repo(tx).ReserveShares(ctx, propertyID, shares); err != nil {
		return fmt.Errorf("failed to reserve %d shares of property %s: %w", shares, propertyID, err)
	}
	return nil
}

// Release returns shares to the property's available inventory.
// A release beyond totalShares fails with apperrors.ErrInventoryCorruption and is never clamped.
func (s *InventoryService) Release(ctx context.Context, tx *sql.Tx, propertyID string, shares int64) error {
	if shares <= 0 {
		return fmt.Errorf("%w: cannot release %d shares", apperrors.ErrInvalidQuantity, shares)
	}
	if err := s.repo(tx).ReleaseShares(ctx, propertyID, shares); err != nil {
		return fmt.Errorf("failed to release %d shares of property %s: %w", shares, propertyID, err)
	}
	return nil
}

// CheckConservation verifies availableShares + active investment shares == totalShares.
func (s *InventoryService) CheckConservation(ctx context.Context, tx *sql.Tx, propertyID string) error {
	repo := s.repo(tx)

	property, err := repo.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	held, err := repo.SumActiveShares(ctx, propertyID)
	if err != nil {
		return err
	}

	if property.AvailableShares+held != property.TotalShares {
		return fmt.Errorf("%w: property %s has %d available + %d held != %d total",
			apperrors.ErrInventoryCorruption, propertyID, property.AvailableShares, held, property.TotalShares)
	}
	return nil
}
