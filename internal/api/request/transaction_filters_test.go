package request

import (
	"testing"
	"time"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

func TestParseTransactionFilters(t *testing.T) {
	t.Run("default values when no parameters provided", func(t *testing.T) {
		filters, err := ParseTransactionFilters("", "", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if filters.SortDir != "asc" {
			t.Errorf("Expected default SortDir 'asc', got '%s'", filters.SortDir)
		}
		if len(filters.Types) != 0 || len(filters.Statuses) != 0 {
			t.Errorf("Expected no type or status filters, got %v %v", filters.Types, filters.Statuses)
		}
		if filters.StartDate != nil || filters.EndDate != nil {
			t.Error("Expected no date filters")
		}
	})

	t.Run("multiple statuses filter", func(t *testing.T) {
		filters, err := ParseTransactionFilters("", "pending, Completed", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		expected := []model.TransactionStatus{model.TransactionPending, model.TransactionCompleted}
		if len(filters.Statuses) != len(expected) {
			t.Fatalf("Expected %d statuses, got %d", len(expected), len(filters.Statuses))
		}
		for i, status := range filters.Statuses {
			if status != expected[i] {
				t.Errorf("Expected status '%s' at index %d, got '%s'", expected[i], i, status)
			}
		}
	})

	t.Run("type filter", func(t *testing.T) {
		filters, err := ParseTransactionFilters("selling", "", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(filters.Types) != 1 || filters.Types[0] != model.TransactionSelling {
			t.Errorf("Expected [selling], got %v", filters.Types)
		}
	})

	t.Run("invalid type returns error", func(t *testing.T) {
		if _, err := ParseTransactionFilters("buy", "", "", "", ""); err == nil {
			t.Error("Expected error for invalid type, got nil")
		}
	})

	t.Run("invalid status returns error", func(t *testing.T) {
		if _, err := ParseTransactionFilters("", "settled", "", "", ""); err == nil {
			t.Error("Expected error for invalid status, got nil")
		}
	})

	t.Run("date range", func(t *testing.T) {
		filters, err := ParseTransactionFilters("", "", "2026-01-01", "2026-02-01T12:00:00Z", "desc")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if !filters.StartDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Unexpected start date %v", filters.StartDate)
		}
		if !filters.EndDate.Equal(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("Unexpected end date %v", filters.EndDate)
		}
		if filters.SortDir != "desc" {
			t.Errorf("Expected SortDir 'desc', got '%s'", filters.SortDir)
		}
	})

	t.Run("date-only end_date covers the whole day", func(t *testing.T) {
		filters, err := ParseTransactionFilters("", "", "2026-03-05", "2026-03-05", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		midday := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
		if midday.Before(*filters.StartDate) || midday.After(*filters.EndDate) {
			t.Errorf("Expected %v within [%v, %v]", midday, filters.StartDate, filters.EndDate)
		}
		nextDay := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
		if !filters.EndDate.Before(nextDay) {
			t.Errorf("Expected end date before %v, got %v", nextDay, filters.EndDate)
		}
	})

	t.Run("inverted date range returns error", func(t *testing.T) {
		if _, err := ParseTransactionFilters("", "", "2026-02-01", "2026-01-01", ""); err == nil {
			t.Error("Expected error for inverted date range, got nil")
		}
	})

	t.Run("invalid date returns error", func(t *testing.T) {
		if _, err := ParseTransactionFilters("", "", "01/02/2026", "", ""); err == nil {
			t.Error("Expected error for invalid date, got nil")
		}
	})

	t.Run("invalid sort_dir returns error", func(t *testing.T) {
		if _, err := ParseTransactionFilters("", "", "", "", "sideways"); err == nil {
			t.Error("Expected error for invalid sort_dir, got nil")
		}
	})
}
