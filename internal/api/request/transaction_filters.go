package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// ParseTransactionFilters extracts and validates transaction list filters from query
// parameters. All parameters are optional.
//
// Validation rules:
//   - type: comma-separated, each investing or selling
//   - status: comma-separated, each pending, completed or failed
//   - start_date/end_date: YYYY-MM-DD or RFC3339; a date-only end_date covers that whole day
//   - sort_dir: "asc" or "desc" (defaults to "asc")
//
// Returns an error if any parameter fails validation.
func ParseTransactionFilters(typesParam, statusesParam, startDateParam, endDateParam, sortDirParam string) (*model.TransactionFilters, error) {
	filters := &model.TransactionFilters{}

	// Parse types (comma-separated)
	if typesParam != "" {
		for _, t := range strings.Split(typesParam, ",") {
			t = strings.TrimSpace(strings.ToLower(t))
			switch model.TransactionType(t) {
			case model.TransactionInvesting, model.TransactionSelling:
				filters.Types = append(filters.Types, model.TransactionType(t))
			default:
				return nil, fmt.Errorf("invalid transaction type: %s", t)
			}
		}
	}

	// Parse statuses (comma-separated)
	if statusesParam != "" {
		for _, s := range strings.Split(statusesParam, ",") {
			s = strings.TrimSpace(strings.ToLower(s))
			switch model.TransactionStatus(s) {
			case model.TransactionPending, model.TransactionCompleted, model.TransactionFailed:
				filters.Statuses = append(filters.Statuses, model.TransactionStatus(s))
			default:
				return nil, fmt.Errorf("invalid transaction status: %s", s)
			}
		}
	}

	// Parse start_date
	if startDateParam != "" {
		startTime, _, err := parseFilterTime(startDateParam)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date format: %w", err)
		}
		filters.StartDate = &startTime
	}

	// Parse end_date
	if endDateParam != "" {
		endTime, dateOnly, err := parseFilterTime(endDateParam)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date format: %w", err)
		}
		if dateOnly {
			endTime = endTime.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		filters.EndDate = &endTime
	}

	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, fmt.Errorf("invalid date range: end_date is before start_date")
	}

	// Validate sort_dir
	if sortDirParam != "" {
		sortDir := strings.ToLower(sortDirParam)
		if sortDir != "asc" && sortDir != "desc" {
			return nil, fmt.Errorf("invalid sort_dir: must be 'asc' or 'desc'")
		}
		filters.SortDir = sortDir
	} else {
		filters.SortDir = "asc" // Ledger order
	}

	return filters, nil
}

// parseFilterTime parses date strings for filter parameters.
// Accepts YYYY-MM-DD, RFC3339, and RFC3339 with milliseconds formats.
// dateOnly reports whether str carried no time of day.
func parseFilterTime(str string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.DateOnly, str); err == nil {
		return t.UTC(), true, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("cannot parse %q as a date or datetime", str)
}
