// Package sweep executes one full polite pass over resolved fetch targets.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ringwatch/internal/catalog"
	"ringwatch/internal/extract"
	"ringwatch/internal/fetcher"
	"ringwatch/internal/tracking"
)

// Runner fetches each target in order and extracts a price signal. Execution
// is deliberately sequential with a politeness delay between fetches:
// retailers tolerate slow crawlers, not bursts.
type Runner struct {
	fetch     fetcher.Fetcher
	extractor *extract.Extractor
	pace      time.Duration
	logger    zerolog.Logger
}

// New constructs a sweep runner. A non-positive pace disables the delay.
func New(fetch fetcher.Fetcher, extractor *extract.Extractor, pace time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		fetch:     fetch,
		extractor: extractor,
		pace:      pace,
		logger:    logger.With().Str("component", "sweep").Logger(),
	}
}

// Run performs one sweep. Fetch failures, bad statuses, and unparseable
// pages all skip the target; absence from the result is the only failure
// signal. A cancelled context ends the sweep early with whatever has been
// observed so far.
func (r *Runner) Run(ctx context.Context, targets []catalog.Target) []tracking.Observation {
	observations := make([]tracking.Observation, 0, len(targets))

	for i, target := range targets {
		if i > 0 && !r.wait(ctx) {
			r.logger.Debug().Int("observed", len(observations)).Msg("sweep cancelled mid-pass")
			return observations
		}

		raw, err := r.fetch.Fetch(ctx, target.URL)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("source", string(target.Source)).
				Str("variant", string(target.Variant)).
				Msg("fetch failed, skipping target")
			continue
		}

		price, ok := r.extractor.Extract(raw)
		if !ok {
			r.logger.Debug().
				Str("source", string(target.Source)).
				Str("variant", string(target.Variant)).
				Msg("no price signal on page")
			continue
		}

		observations = append(observations, tracking.Observation{
			Timestamp: time.Now().UTC(),
			Source:    target.Source,
			Variant:   target.Variant,
			Price:     price,
			TargetURL: target.URL,
		})
	}

	r.logger.Info().Int("targets", len(targets)).Int("observed", len(observations)).Msg("sweep complete")
	return observations
}

// wait blocks for the politeness delay, returning false if the context was
// cancelled first.
func (r *Runner) wait(ctx context.Context) bool {
	if r.pace <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(r.pace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
