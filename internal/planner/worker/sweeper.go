// Package worker runs the EOT scan in the background.
package worker

import (
	"context"
	"time"

	"asiops/internal/planner"
	"asiops/pkg/events"
	"asiops/pkg/kafka"
	"asiops/pkg/logger"
)

type Scanner interface {
	ScanEOT(ctx context.Context) ([]planner.EOTCandidate, error)
}

// Sweeper scans on a fixed interval and whenever a booking changes.
// Triggers that arrive while a scan is pending collapse into one.
type Sweeper struct {
	scanner  Scanner
	interval time.Duration
	log      *logger.Logger
	trigger  chan struct{}
}

func NewSweeper(scanner Scanner, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		scanner:  scanner,
		interval: interval,
		log:      log,
		trigger:  make(chan struct{}, 1),
	}
}

func (s *Sweeper) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// HandleMessage is the booking-events consumer handler. EOT events are the
// sweeper's own output and never retrigger it.
func (s *Sweeper) HandleMessage(_ context.Context, msg kafka.Message) error {
	event, err := events.Decode(msg)
	if err != nil {
		return err
	}

	switch event.Type {
	case events.BookingEOTPrompted, events.BookingEOTDecided:
		return nil
	}
	s.log.Debug("Booking changed, scheduling EOT scan", "booking_id", event.BookingID, "event_type", event.Type)
	s.Trigger()
	return nil
}

// Run scans once immediately, then until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.trigger:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	candidates, err := s.scanner.ScanEOT(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("EOT scan failed", "error", err)
		}
		return
	}

	prompted := 0
	for _, c := range candidates {
		if c.PromptedAt != nil {
			prompted++
		}
	}
	s.log.Info("EOT scan completed",
		"candidates", len(candidates),
		"prompted", prompted,
		"duration", time.Since(start),
	)
}
