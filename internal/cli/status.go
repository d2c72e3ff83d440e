package cli

import (
	"context"
	"fmt"

	"github.com/ripkitten-co/backfill/recipients"
	"github.com/spf13/cobra"
)

// StatusResult wraps the backfill status for output.
type StatusResult struct {
	recipients.Status
	Key string `json:"key"`
}

func (r StatusResult) String() string {
	if !r.InProgress {
		return fmt.Sprintf("no backfill in progress (%d broadcasts would be processed)", r.Pending)
	}
	return fmt.Sprintf("backfill in progress: highpoint %d, %d broadcasts remaining", r.Highpoint, r.Pending)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored highpoint",
		Long: `Shows the stored highpoint and how many broadcasts a run started now
would process. No highpoint means either that no run has started or that the
last one completed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runStatus(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	bf, err := rt.backfiller(f.Progress(), nil)
	if err != nil {
		return err
	}
	st, err := bf.Status(ctx)
	if err != nil {
		return err
	}
	return f.Success(StatusResult{Status: st, Key: bf.Highpoint().Key()})
}
