package notify

import (
	"context"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
)

// LogDispatcher writes events to the structured log. It is the default when no
// webhook is configured.
type LogDispatcher struct{}

func (LogDispatcher) Name() string { return "log" }

func (LogDispatcher) Dispatch(_ context.Context, e Event) error {
	logging.Info().
		Str("event", e.Type).
		Str("account_id", e.AccountID).
		Str("reference_id", e.ReferenceID).
		Str("amount", e.Amount.String()).
		Int64("shares", e.Shares).
		Time("occurred_at", e.OccurredAt).
		Msg("ledger notification")
	return nil
}
