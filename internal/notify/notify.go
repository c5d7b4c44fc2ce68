// Package notify delivers best-effort notifications about committed ledger changes.
// Delivery never blocks or fails the ledger operation that produced the event.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/metrics"
)

// Event types.
const (
	EventInvestmentMade  = "investment.made"
	EventSellRequested   = "sell.requested"
	EventSellApproved    = "sell.approved"
	EventSellRejected    = "sell.rejected"
	EventReturnsCredited = "returns.credited"
	EventDepositPaid     = "deposit.paid"
	EventDepositDeclined = "deposit.declined"
)

// Event describes a committed ledger change worth telling the account holder about.
type Event struct {
	Type        string          `json:"type"`
	AccountID   string          `json:"accountId"`
	ReferenceID string          `json:"referenceId"`
	Amount      decimal.Decimal `json:"amount"`
	Shares      int64           `json:"shares,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Dispatcher delivers a single event.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, e Event) error
}

// Notifier sends events on background goroutines so callers return as soon as their
// transaction has committed.
type Notifier struct {
	dispatcher Dispatcher
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewNotifier creates a Notifier around d. Each delivery is bounded by timeout.
func NewNotifier(d Dispatcher, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{dispatcher: d, timeout: timeout}
}

// Notify dispatches e in the background. A nil Notifier drops the event.
func (n *Notifier) Notify(e Event) {
	if n == nil || n.dispatcher == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := n.dispatcher.Dispatch(ctx, e)
		metrics.RecordNotification(n.dispatcher.Name(), err)
		if err != nil {
			logging.Warn().
				Err(err).
				Str("dispatcher", n.dispatcher.Name()).
				Str("event", e.Type).
				Str("account_id", e.AccountID).
				Str("reference_id", e.ReferenceID).
				Msg("notification delivery failed")
		}
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
