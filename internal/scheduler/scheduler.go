// Package scheduler runs the return distribution sweep on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/service"
)

// Distributor runs one distribution sweep.
type Distributor interface {
	DistributeReturns(ctx context.Context, trigger string) (model.DistributionReport, error)
}

// Scheduler triggers the distribution sweep. Overlapping runs are skipped and a
// panicking run is recovered so the next tick still fires.
type Scheduler struct {
	cron        *cron.Cron
	distributor Distributor
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a Scheduler that sweeps on spec, a standard five-field cron expression
// or a descriptor such as "@daily" or "@every 1h".
func New(spec string, distributor Distributor) (*Scheduler, error) {
	logger := cronLogger{}
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:        c,
		distributor: distributor,
		ctx:         ctx,
		cancel:      cancel,
	}

	if _, err := c.AddFunc(spec, func() { s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid distribution schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logging.Info().Int("jobs", len(s.cron.Entries())).Msg("distribution scheduler started")
}

// Stop stops the schedule, cancels a running sweep and waits for it to return or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single scheduled sweep and logs its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	report, err := s.distributor.DistributeReturns(ctx, service.TriggerScheduled)
	switch {
	case errors.Is(err, apperrors.ErrSweepInProgress):
		logging.Info().Msg("scheduled distribution skipped, another sweep holds the lease")
	case err != nil:
		logging.Error().Err(err).Msg("scheduled distribution failed")
	default:
		logging.Debug().
			Int("credited", report.Credited).
			Int("failed", report.Failed).
			Msg("scheduled distribution completed")
	}
}

// cronLogger adapts the zerolog logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	withFields(logging.Debug(), keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	withFields(logging.Error().Err(err), keysAndValues).Msg(msg)
}

func withFields(e *zerolog.Event, keysAndValues []any) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	return e
}
