// Package refresher runs an optional scheduled warm-up of the price cache so
// the first dashboard poll after a TTL expiry is served from a warm cache
// instead of waiting on rate-limited vendor batches.
package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/devashishj/folio/internal/clients/bse"
	"github.com/devashishj/folio/internal/portfolio"
)

// Aggregator is the slice of the aggregation service the refresher needs.
type Aggregator interface {
	AggregateAll(ctx context.Context) []portfolio.EnrichedHolding
}

// Service schedules background cache warm-ups.
type Service struct {
	cron    *cron.Cron
	agg     Aggregator
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a refresher that runs on the given cron schedule, e.g.
// "@every 2m" or "*/5 * * * *". holdingCount sizes the per-run timeout so a
// fully cold run across all rate-limited batches still fits.
func New(schedule string, agg Aggregator, holdingCount int, log zerolog.Logger) (*Service, error) {
	s := &Service{
		cron: cron.New(),
		agg:  agg,
		// Budget: a base minute plus the worst-case batch spacing for a cold
		// price and fundamentals pass.
		timeout: time.Minute + 2*bse.BatchDelayFor(holdingCount),
		log:     log.With().Str("component", "refresher").Logger(),
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start starts the schedule.
func (s *Service) Start() {
	s.cron.Start()
	s.log.Info().Msg("Cache refresher started")
}

// Stop stops the schedule and waits for a running refresh to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Cache refresher stopped")
}

// run performs one warm-up pass. The aggregation call persists fresh data
// into the cache files as a side effect; the enriched result is discarded.
func (s *Service) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	enriched := s.agg.AggregateAll(ctx)

	s.log.Debug().
		Int("holdings", len(enriched)).
		Dur("duration_ms", time.Since(start)).
		Msg("Cache warm-up complete")
}
