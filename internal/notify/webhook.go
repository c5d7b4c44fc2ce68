package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
)

// WebhookDispatcher POSTs events as JSON to a fixed URL. Calls go through a circuit
// breaker so a dead endpoint is not hammered by every settlement.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookDispatcher creates a dispatcher for url.
// The breaker opens after 5 consecutive failures and probes again after 30 seconds.
func NewWebhookDispatcher(url string, client *http.Client) *WebhookDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notify-webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
		},
	})

	return &WebhookDispatcher{url: url, client: client, cb: cb}
}

func (d *WebhookDispatcher) Name() string { return "webhook" }

// Dispatch delivers e. While the breaker is open it fails fast with gobreaker.ErrOpenState.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, e Event) error {
	_, err := d.cb.Execute(func() (struct{}, error) {
		return struct{}{}, d.post(ctx, e)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("webhook unavailable: %w", err)
	}
	return err
}

// State returns the breaker state.
func (d *WebhookDispatcher) State() gobreaker.State {
	return d.cb.State()
}

func (d *WebhookDispatcher) post(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	//nolint:errcheck // drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
