package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/checkpoint"
	"github.com/ripkitten-co/backfill/internal/config"
	"github.com/ripkitten-co/backfill/internal/logx"
	"github.com/ripkitten-co/backfill/msgs"
	"github.com/ripkitten-co/backfill/recipients"
	"github.com/rs/zerolog"
)

// envFile is read from the working directory when present.
const envFile = ".env"

// runtime is everything a command needs once config is loaded and the
// database is reachable.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *backfill.Store
	repos   *msgs.Repositories
	kv      checkpoint.KV
	closeKV func() error
}

// loadConfig reads the config file and environment, then applies
// command-line overrides and validates the result again.
func loadConfig(opts *RootOptions, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, envFile)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, errOut io.Writer) zerolog.Logger {
	return logx.New(logx.Config{Level: cfg.Log.Level, Console: cfg.Log.Console}, errOut)
}

func openRuntime(ctx context.Context, opts *RootOptions, errOut io.Writer, override func(*config.Config)) (*runtime, error) {
	cfg, err := loadConfig(opts, override)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, errOut)

	var storeOpts []backfill.Option
	if cfg.Database.MaxConns > 0 {
		storeOpts = append(storeOpts, backfill.WithMaxConns(cfg.Database.MaxConns))
	}
	store, err := backfill.New(ctx, cfg.Database.URL, storeOpts...)
	if err != nil {
		return nil, err
	}

	repos, err := msgs.Open(cfg.Database.Driver, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	kv, closeKV, err := openKV(ctx, cfg.Checkpoint, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	log.Debug().
		Str("driver", cfg.Database.Driver).
		Str("checkpoint", cfg.Checkpoint.Backend).
		Int("batch_size", cfg.BatchSize).
		Float64("rate_limit", cfg.RateLimit).
		Msg("connected")

	return &runtime{
		cfg:     cfg,
		log:     log,
		store:   store,
		repos:   repos,
		kv:      kv,
		closeKV: closeKV,
	}, nil
}

// openKV builds the highpoint store named by cfg.Backend. The returned close
// func is never nil.
func openKV(ctx context.Context, cfg config.CheckpointConfig, b backfill.Backend) (checkpoint.KV, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.CheckpointPostgres:
		return checkpoint.NewPostgres(b), noop, nil
	case config.CheckpointRedis:
		r, err := checkpoint.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case config.CheckpointBadger:
		bg, err := checkpoint.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return bg, bg.Close, nil
	case config.CheckpointMemory:
		return checkpoint.NewMemory(), noop, nil
	default:
		return nil, nil, fmt.Errorf("cli: unknown checkpoint backend %q", cfg.Backend)
	}
}

// backfiller builds a Backfiller over the runtime's repositories. kv
// replaces the configured highpoint store when non-nil.
func (r *runtime) backfiller(progress io.Writer, kv checkpoint.KV) (*recipients.Backfiller, error) {
	if kv == nil {
		kv = r.kv
	}
	return recipients.New(r.repos.Parents, r.repos.Sources, kv,
		recipients.WithBatchSize(r.cfg.BatchSize),
		recipients.WithProgress(progress),
		recipients.WithLogger(r.log),
		recipients.WithHighpointKey(r.cfg.Checkpoint.Key),
		recipients.WithRateLimit(r.cfg.RateLimit),
	)
}

func (r *runtime) Close() {
	if err := r.closeKV(); err != nil {
		r.log.Warn().Err(err).Msg("close checkpoint store")
	}
	r.store.Close()
}
