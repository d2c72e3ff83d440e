package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ripkitten-co/backfill/checkpoint"
	"github.com/ripkitten-co/backfill/internal/config"
	"github.com/ripkitten-co/backfill/recipients"
	"github.com/spf13/cobra"
)

type RunOptions struct {
	BatchSize int
	RateLimit float64
	DryRun    bool
}

// RunResult is the outcome of a backfill run.
type RunResult struct {
	recipients.Report
	DryRun bool `json:"dry_run"`
}

func (r RunResult) String() string {
	s := fmt.Sprintf("backfilled %d broadcasts (%d recipients) in %s",
		r.Processed, r.Recipients, r.Elapsed.Round(time.Millisecond))
	if r.Resumed {
		s += fmt.Sprintf(", resumed after %d", r.ResumedFrom)
	}
	if r.DryRun {
		s += " [dry run: highpoint not persisted]"
	}
	return s
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute recipients for every broadcast above the highpoint",
		Long: `Recomputes the recipient set of each broadcast in ascending id order,
printing one progress line per broadcast. The highpoint is saved after each
broadcast and removed when the run completes.

With --dry-run the highpoint lives in memory only: recipients are still
rewritten, but the stored highpoint is neither read nor changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "recipient rows per insert (default from config)")
	cmd.Flags().Float64Var(&opts.RateLimit, "rate-limit", 0, "max broadcasts per second, 0 for unlimited (default from config)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "keep the highpoint in memory")

	return cmd
}

func runBackfill(ctx context.Context, rootOpts *RootOptions, opts *RunOptions, cmd *cobra.Command) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	override := func(cfg *config.Config) {
		if cmd.Flags().Changed("batch-size") {
			cfg.BatchSize = opts.BatchSize
		}
		if cmd.Flags().Changed("rate-limit") {
			cfg.RateLimit = opts.RateLimit
		}
	}
	rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr(), override)
	if err != nil {
		return err
	}
	defer rt.Close()

	var kv checkpoint.KV
	if opts.DryRun {
		kv = checkpoint.NewMemory()
	}
	bf, err := rt.backfiller(f.Progress(), kv)
	if err != nil {
		return err
	}

	report, err := bf.Run(ctx)
	if err != nil {
		return err
	}
	return f.Success(RunResult{Report: report, DryRun: opts.DryRun})
}
