package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/internal/logx"
	"github.com/rs/zerolog"
)

// Runner applies registered migrations in registration order.
type Runner struct {
	ledger Ledger
	plan   []Migration
	log    zerolog.Logger
}

func NewRunner(ledger Ledger, log zerolog.Logger, plan ...Migration) *Runner {
	return &Runner{ledger: ledger, plan: plan, log: log}
}

// Pending returns the keys Up would apply, in order.
func (r *Runner) Pending(ctx context.Context) ([]Key, error) {
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	var pending []Key
	for _, m := range r.plan {
		if !applied[m.Key] {
			pending = append(pending, m.Key)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns the keys it applied. It
// stops at the first failure; migrations applied before it stay recorded.
func (r *Runner) Up(ctx context.Context) ([]Key, error) {
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var done []Key
	for _, m := range r.plan {
		if applied[m.Key] {
			continue
		}
		for _, dep := range m.Dependencies {
			if !applied[dep] {
				return done, fmt.Errorf("migrations: apply %s: needs %s: %w", m.Key, dep, backfill.ErrMissingDependency)
			}
		}

		start := time.Now()
		r.log.Info().Str("migration", m.Key.String()).Msg("applying")
		if m.Forward != nil {
			if err := m.Forward(ctx); err != nil {
				return done, fmt.Errorf("migrations: apply %s: %w", m.Key, err)
			}
		}
		if err := r.ledger.Record(ctx, m.Key); err != nil {
			return done, fmt.Errorf("migrations: apply %s: %w", m.Key, err)
		}
		applied[m.Key] = true
		done = append(done, m.Key)
		r.log.Info().Str("migration", m.Key.String()).Dur("elapsed", logx.Elapsed(time.Since(start))).Msg("applied")
	}
	return done, nil
}

// Down reverses one applied migration. It refuses while a migration that
// depends on it is still applied.
func (r *Runner) Down(ctx context.Context, k Key) error {
	var target *Migration
	for i := range r.plan {
		if r.plan[i].Key == k {
			target = &r.plan[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migrations: rollback %s: %w", k, backfill.ErrUnknownMigration)
	}

	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if !applied[k] {
		r.log.Info().Str("migration", k.String()).Msg("not applied, nothing to roll back")
		return nil
	}
	for _, m := range r.plan {
		if !applied[m.Key] {
			continue
		}
		for _, dep := range m.Dependencies {
			if dep == k {
				return fmt.Errorf("migrations: rollback %s: %s depends on it and is still applied", k, m.Key)
			}
		}
	}

	r.log.Info().Str("migration", k.String()).Msg("rolling back")
	backward := target.Backward
	if backward == nil {
		backward = Noop
	}
	if err := backward(ctx); err != nil {
		return fmt.Errorf("migrations: rollback %s: %w", k, err)
	}
	if err := r.ledger.Forget(ctx, k); err != nil {
		return fmt.Errorf("migrations: rollback %s: %w", k, err)
	}
	return nil
}
