package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/database"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The schema comes from the real migrations, so tests always run against the
// production table layout. The database is closed when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CleanDatabase removes all data from all tables while preserving the schema.
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// Order matters: delete children before parents due to foreign keys
	tables := []string{
		"realized_gain",
		"return_payment",
		`"transaction"`,
		"deposit",
		"investment",
		"property_price",
		"property",
		"account",
	}

	for _, table := range tables {
		//nolint:gosec // G202: Table names are from hardcoded slice, no SQL injection risk
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
//
// Example usage:
//
//	count := testutil.CountRows(t, db, "investment")
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	//nolint:gosec // G202: Table names come from test code only
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
//
// Example usage:
//
//	testutil.AssertRowCount(t, db, "investment", 2)
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}

// AssertConservation asserts availableShares + active investment shares == totalShares
// for the property.
func AssertConservation(t *testing.T, db *sql.DB, propertyID string) {
	t.Helper()

	var total, available, held int64
	err := db.QueryRow(`SELECT total_shares, available_shares FROM property WHERE id = ?`, propertyID).Scan(&total, &available)
	if err != nil {
		t.Fatalf("Failed to load property %s: %v", propertyID, err)
	}
	err = db.QueryRow(`SELECT COALESCE(SUM(num_of_shares), 0) FROM investment WHERE property_id = ? AND status = 'active'`, propertyID).Scan(&held)
	if err != nil {
		t.Fatalf("Failed to sum investment shares: %v", err)
	}

	if available+held != total {
		t.Errorf("Share conservation violated for %s: %d available + %d held != %d total", propertyID, available, held, total)
	}
}
