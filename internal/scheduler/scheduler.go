// Package scheduler polls the invoice mailbox on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/logger"
	"invoiceledger/internal/service"
)

// DefaultRunTimeout bounds a single mailbox run.
const DefaultRunTimeout = 10 * time.Minute

// Scheduler runs mailbox ingestion in the background.
type Scheduler struct {
	cron       *cron.Cron
	ingestion  service.IngestionService
	schedule   string
	runTimeout time.Duration
	log        zerolog.Logger
}

// NewScheduler creates a scheduler that runs ProcessMailbox on schedule, which
// is a standard 5-field cron spec or a descriptor such as "@every 15m".
func NewScheduler(ingestion service.IngestionService, schedule string) *Scheduler {
	log := logger.WithComponent("scheduler")
	cronLog := cron.PrintfLogger(&log)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	return &Scheduler{
		cron:       c,
		ingestion:  ingestion,
		schedule:   schedule,
		runTimeout: DefaultRunTimeout,
		log:        log,
	}
}

// Start registers the mailbox job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.processMailbox); err != nil {
		return fmt.Errorf("scheduling mailbox poll %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Int("jobs", len(s.cron.Entries())).Msg("cron scheduler started")
	return nil
}

// Stop stops the cron loop. The returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info().Msg("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers a mailbox run outside the schedule.
func (s *Scheduler) RunNow() {
	go s.processMailbox()
}

func (s *Scheduler) processMailbox() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	report, err := s.ingestion.ProcessMailbox(ctx)
	switch {
	case errors.Is(err, domain.ErrIngestionInProgress):
		s.log.Debug().Msg("mailbox run skipped, another run is active")
	case err != nil:
		s.log.Error().Err(err).Msg("scheduled mailbox run failed")
	default:
		s.log.Info().
			Int("processed", report.ProcessedCount).
			Int("failed", report.FailedCount).
			Str("message", report.Message).
			Msg("scheduled mailbox run completed")
	}
}
