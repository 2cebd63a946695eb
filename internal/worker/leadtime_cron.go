package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/uid0/openmakersuite/internal/service"
)

// StartLeadTimeCron periodically recomputes every item's average lead
// time so estimates stay honest even if a per-delivery recompute job
// was lost. The recompute is idempotent, so overlapping with the
// per-delivery path is harmless.
func StartLeadTimeCron(ctx context.Context, leadTimes service.LeadTimeService, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// One pass at startup so a fresh deploy has estimates right away.
		runRecompute(ctx, leadTimes)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runRecompute(ctx, leadTimes)
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("lead time cron started")
}

func runRecompute(ctx context.Context, leadTimes service.LeadTimeService) {
	start := time.Now()
	if err := leadTimes.RecomputeAll(ctx); err != nil {
		log.Error().Err(err).Msg("lead time recompute pass failed")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("lead time recompute pass finished")
}
