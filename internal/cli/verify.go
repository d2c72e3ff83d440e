package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ripkitten-co/backfill/recipients"
	"github.com/spf13/cobra"
)

// VerifyResult wraps a consistency check for output.
type VerifyResult struct {
	recipients.Consistency
	Consistent bool `json:"consistent"`
}

func (r VerifyResult) String() string {
	if r.Consistent {
		return fmt.Sprintf("broadcast %d: consistent (%d recipients)", r.BroadcastID, r.Stored)
	}
	return fmt.Sprintf("broadcast %d: inconsistent: expected %d, stored %d, missing %d, extra %d, duplicated %d",
		r.BroadcastID, r.Expected, r.Stored, len(r.Missing), len(r.Extra), r.Duplicates)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <broadcast-id>",
		Short: "Check a broadcast's recipients against its msgs",
		Long: `Compares the stored recipients of one broadcast with the distinct
contacts of its msgs. Exits with status 1 when they differ.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBroadcastID(args[0])
			if err != nil {
				return err
			}
			return runVerify(cmd.Context(), rootOpts, id, cmd)
		},
	}
}

func parseBroadcastID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid broadcast id %q: want a positive integer", s)
	}
	return id, nil
}

func runVerify(ctx context.Context, opts *RootOptions, id int64, cmd *cobra.Command) error {
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
	c, err := bf.Verify(ctx, id)
	if err != nil {
		return err
	}

	result := VerifyResult{Consistency: c, Consistent: c.OK()}
	if err := f.Success(result); err != nil {
		return err
	}
	if !result.Consistent {
		// the result above already says so
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("broadcast %d is inconsistent", id), Reported: true}
	}
	return nil
}
