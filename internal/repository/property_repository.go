package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// PropertyRepository provides access to the property and property_price tables.
// Share inventory is only changed through ReserveShares and ReleaseShares, whose
// WHERE clauses keep availableShares inside [0, totalShares].
type PropertyRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPropertyRepository creates a new PropertyRepository with the provided database connection.
func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// WithTx returns a new PropertyRepository scoped to the provided transaction.
func (r *PropertyRepository) WithTx(tx *sql.Tx) *PropertyRepository {
	return &PropertyRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PropertyRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetProperty retrieves a property by ID.
// Returns apperrors.ErrPropertyNotFound if no property matches.
func (r *PropertyRepository) GetProperty(ctx context.Context, propertyID string) (model.Property, error) {
	query := `
		SELECT id, title, total_shares, available_shares, price_per_share, is_rented,
		       rental_income, price_sold, version, updated_at
		FROM property
		WHERE id = ?
	`

	var p model.Property
	var updatedAt sql.NullString
	err := r.getQuerier().QueryRowContext(ctx, query, propertyID).Scan(
		&p.ID,
		&p.Title,
		&p.TotalShares,
		&p.AvailableShares,
		&p.PricePerShare,
		&p.IsRented,
		&p.RentalIncome,
		&p.PriceSold,
		&p.Version,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, apperrors.ErrPropertyNotFound
	}
	if err != nil {
		return model.Property{}, fmt.Errorf("failed to query property: %w", err)
	}

	if updatedAt.Valid {
		p.UpdatedAt, err = ParseTime(updatedAt.String)
		if err != nil {
			return model.Property{}, err
		}
	}

	return p, nil
}

// InsertProperty creates a property row and seeds its price history with the current price.
func (r *PropertyRepository) InsertProperty(ctx context.Context, p *model.Property) error {
	query := `
		INSERT INTO property (id, title, total_shares, available_shares, price_per_share,
		                      is_rented, rental_income, price_sold, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	var priceSold sql.NullString
	if p.PriceSold.Valid {
		priceSold = sql.NullString{String: p.PriceSold.Decimal.String(), Valid: true}
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.TotalShares,
		p.AvailableShares,
		p.PricePerShare.String(),
		p.IsRented,
		p.RentalIncome.String(),
		priceSold,
		p.Version,
		FormatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}

	return r.InsertPrice(ctx, &model.PropertyPrice{
		PropertyID: p.ID,
		Price:      p.PricePerShare,
		RecordedAt: p.UpdatedAt,
	})
}

// InsertPrice appends a price to the property's history and makes it the current price.
func (r *PropertyRepository) InsertPrice(ctx context.Context, price *model.PropertyPrice) error {
	if price.ID == "" {
		price.ID = uuid.New().String()
	}
	if price.RecordedAt.IsZero() {
		price.RecordedAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO property_price (id, property_id, price, recorded_at)
		VALUES (?, ?, ?, ?)
	`,
		price.ID,
		price.PropertyID,
		price.Price.String(),
		FormatTime(price.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert property price: %w", err)
	}

	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE property SET price_per_share = ?, version = version + 1 WHERE id = ?
	`, price.Price.String(), price.PropertyID)
	if err != nil {
		return fmt.Errorf("failed to update property price: %w", err)
	}
	return expectOne(result, apperrors.ErrPropertyNotFound)
}

// LatestPrice returns the tail of the property's price history, falling back to the
// current price_per_share column when no history exists.
func (r *PropertyRepository) LatestPrice(ctx context.Context, propertyID string) (decimal.Decimal, error) {
	query := `
		SELECT pp.price
		FROM property_price pp
		WHERE pp.property_id = ?
		ORDER BY pp.recorded_at DESC
		LIMIT 1
	`

	var price decimal.Decimal
	err := r.getQuerier().QueryRowContext(ctx, query, propertyID).Scan(&price)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to query property price: %w", err)
	}

	p, err := r.GetProperty(ctx, propertyID)
	if err != nil {
		return decimal.Zero, err
	}
	if !p.PricePerShare.IsPositive() {
		return decimal.Zero, apperrors.ErrPriceNotFound
	}
	return p.PricePerShare, nil
}

// ReserveShares takes shares out of the property's available inventory.
// The update only applies when enough shares are available, so two concurrent
// reservations can never drive availableShares below zero.
func (r *PropertyRepository) ReserveShares(ctx context.Context, propertyID string, shares int64) error {
	query := `
		UPDATE property
		SET available_shares = available_shares - ?, version = version + 1, updated_at = ?
		WHERE id = ? AND available_shares >= ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, shares, FormatTime(time.Now()), propertyID, shares)
	if err != nil {
		return fmt.Errorf("failed to reserve shares: %w", err)
	}

	if err := expectOne(result, apperrors.ErrInsufficientInventory); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientInventory) {
			if _, getErr := r.GetProperty(ctx, propertyID); getErr != nil {
				return getErr
			}
		}
		return err
	}
	return nil
}

// ReleaseShares returns shares to the property's available inventory.
// A release that would push availableShares past totalShares is rejected with
// apperrors.ErrInventoryCorruption.
func (r *PropertyRepository) ReleaseShares(ctx context.Context, propertyID string, shares int64) error {
	query := `
		UPDATE property
		SET available_shares = available_shares + ?, version = version + 1, updated_at = ?
		WHERE id = ? AND available_shares + ? <= total_shares
	`

	result, err := r.getQuerier().ExecContext(ctx, query, shares, FormatTime(time.Now()), propertyID, shares)
	if err != nil {
		return fmt.Errorf("failed to release shares: %w", err)
	}

	if err := expectOne(result, apperrors.ErrInventoryCorruption); err != nil {
		if errors.Is(err, apperrors.ErrInventoryCorruption) {
			if _, getErr := r.GetProperty(ctx, propertyID); getErr != nil {
				return getErr
			}
			return fmt.Errorf("%w: releasing %d shares of property %s exceeds total shares", err, shares, propertyID)
		}
		return err
	}
	return nil
}

// SumActiveShares returns the number of shares held by active investments in the property.
func (r *PropertyRepository) SumActiveShares(ctx context.Context, propertyID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(num_of_shares), 0)
		FROM investment
		WHERE property_id = ? AND status = 'active'
	`

	var total int64
	if err := r.getQuerier().QueryRowContext(ctx, query, propertyID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum active shares: %w", err)
	}
	return total, nil
}
