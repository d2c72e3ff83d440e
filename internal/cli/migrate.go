package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ripkitten-co/backfill/migrations"
	"github.com/spf13/cobra"
)

// MigrateResult lists the migrations a command applied or reversed.
type MigrateResult struct {
	Applied    []string `json:"applied,omitempty"`
	RolledBack string   `json:"rolled_back,omitempty"`
}

func (r MigrateResult) String() string {
	if r.RolledBack != "" {
		return "rolled back " + r.RolledBack
	}
	if len(r.Applied) == 0 {
		return "no migrations to apply"
	}
	return "applied " + joinKeys(r.Applied)
}

func joinKeys(keys []string) string {
	return strings.Join(keys, ", ")
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending recipient migrations",
		Long: `Applies msgs.0064_broadcast_recipients (create the relation) and
msgs.0065_backfill_broadcast_contact_recipients (run the backfill) when they
are not yet recorded in the migration ledger.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), rootOpts, cmd)
		},
	}
}

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <app.name>",
		Short: "Reverse one applied migration",
		Long: `Reverses one migration by key, e.g. msgs.0065_backfill_broadcast_contact_recipients.
Reversing the backfill leaves the rebuilt relation in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := migrations.ParseKey(args[0])
			if err != nil {
				return err
			}
			return runRollback(cmd.Context(), rootOpts, key, cmd)
		},
	}
}

func newMigrationRunner(rt *runtime, f *OutputFormatter) (*migrations.Runner, error) {
	bf, err := rt.backfiller(f.Progress(), nil)
	if err != nil {
		return nil, err
	}
	ledger := migrations.NewPostgresLedger(rt.store)
	return migrations.NewRunner(ledger, rt.log, migrations.Messaging(rt.store, bf)...), nil
}

func runMigrate(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	runner, err := newMigrationRunner(rt, f)
	if err != nil {
		return err
	}
	done, err := runner.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	result := MigrateResult{}
	for _, k := range done {
		result.Applied = append(result.Applied, k.String())
	}
	return f.Success(result)
}

func runRollback(ctx context.Context, opts *RootOptions, key migrations.Key, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	runner, err := newMigrationRunner(rt, f)
	if err != nil {
		return err
	}
	if err := runner.Down(ctx, key); err != nil {
		return err
	}
	return f.Success(MigrateResult{RolledBack: key.String()})
}
