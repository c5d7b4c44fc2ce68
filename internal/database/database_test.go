package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
)

func TestOpenMemory_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"account", "property", "property_price", "investment", "transaction", "realized_gain", "return_payment", "deposit"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}

	// Re-running is a no-op.
	require.NoError(t, Migrate(ctx, db))
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	t.Run("commits when fn succeeds", func(t *testing.T) {
		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO account (id, balance) VALUES ('a1', '10')")
			return err
		})
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account WHERE id = 'a1'").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO account (id, balance) VALUES ('a2', '10')"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account WHERE id = 'a2'").Scan(&count))
		assert.Equal(t, 0, count)
	})
}

func TestWithTx_StoreUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("busy begin surfaces as store unavailable", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("database is locked (5) (SQLITE_BUSY)"))

		err := WithTx(context.Background(), db, func(*sql.Tx) error { return nil })
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})

	t.Run("failed commit surfaces as store unavailable", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(context.DeadlineExceeded)

		err := WithTx(context.Background(), db, func(*sql.Tx) error { return nil })
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	plain := errors.New("constraint failed")
	assert.Equal(t, plain, Classify(plain))

	closed := Classify(fmt.Errorf("query: %w", errors.New("sql: database is closed")))
	assert.ErrorIs(t, closed, apperrors.ErrStoreUnavailable)

	already := fmt.Errorf("x: %w", apperrors.ErrStoreUnavailable)
	assert.Equal(t, already, Classify(already))
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	require.NoError(t, err)

	assert.NoError(t, HealthCheck(ctx, db))

	db.Close()
	assert.ErrorIs(t, HealthCheck(ctx, db), apperrors.ErrStoreUnavailable)
}
