package recipients

import (
	"context"
	"fmt"
	"time"

	"github.com/ripkitten-co/backfill/internal/logx"
)

// Report summarises one Run.
type Report struct {
	RunID       string        `json:"run_id"`
	ResumedFrom int64         `json:"resumed_from"`
	Resumed     bool          `json:"resumed"`
	Total       int           `json:"total"`
	Processed   int           `json:"processed"`
	Recipients  int           `json:"recipients"`
	LastID      int64         `json:"last_id"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// Run recomputes every broadcast above the stored highpoint in ascending id
// order. The highpoint is saved after each broadcast and deleted once all of
// them are done. Any error stops the run with the highpoint left at the last
// completed broadcast, so the next Run picks up after it.
func (b *Backfiller) Run(ctx context.Context) (Report, error) {
	start := b.now()
	runID := b.runID()
	log := b.log.With().Str("run_id", runID).Logger()

	after, resumed, err := b.highpoint.Load(ctx)
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("backfill: %w", err)
	}

	ids, err := b.parents.IDsAfter(ctx, after)
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("backfill: %w", err)
	}

	report := Report{RunID: runID, ResumedFrom: after, Resumed: resumed, Total: len(ids)}
	if resumed {
		log.Info().Int64("highpoint", after).Int("pending", len(ids)).Msg("resuming backfill")
	} else {
		log.Info().Int("pending", len(ids)).Msg("starting backfill")
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("backfill: stopped before %d: %w", id, err)
		}
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return report, fmt.Errorf("backfill: throttle before %d: %w", id, err)
			}
		}

		count, err := b.Recompute(ctx, id)
		if err != nil {
			log.Error().Err(err).Int64("broadcast", id).Msg("recompute failed")
			return report, fmt.Errorf("backfill: %w", err)
		}

		elapsed := b.now().Sub(start)
		if _, err := fmt.Fprintf(b.progress, "%d - %d ... (%d of %d) in %d\n",
			id, count, i, len(ids)-1, int64(elapsed.Seconds())); err != nil {
			log.Warn().Err(err).Int64("broadcast", id).Msg("write progress")
		}

		if err := b.highpoint.Save(ctx, id); err != nil {
			return report, fmt.Errorf("backfill: %w", err)
		}

		report.Processed++
		report.Recipients += count
		report.LastID = id
		log.Debug().Int64("broadcast", id).Int("recipients", count).Dur("elapsed", logx.Elapsed(elapsed)).Msg("recomputed")
	}

	if err := b.highpoint.Clear(ctx); err != nil {
		return report, fmt.Errorf("backfill: %w", err)
	}

	report.Elapsed = b.now().Sub(start)
	log.Info().
		Int("processed", report.Processed).
		Int("recipients", report.Recipients).
		Dur("elapsed", logx.Elapsed(report.Elapsed)).
		Msg("backfill complete")
	return report, nil
}
