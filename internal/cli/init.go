package cli

import (
	"context"

	"github.com/ripkitten-co/backfill/internal/config"
	"github.com/ripkitten-co/backfill/schema"
	"github.com/spf13/cobra"
)

// InitResult lists the tables init made sure exist.
type InitResult struct {
	Tables []string `json:"tables"`
}

func (r InitResult) String() string {
	return "schema ready: " + joinKeys(r.Tables)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the messaging, recipient and bookkeeping tables",
		Long: `Creates the broadcast, contact, msg and broadcast recipient tables if
they are missing, plus the highpoint and migration ledger tables. Meant for
development and test databases; existing tables are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runInit(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	exec := rt.store.DBExecutor()
	bs := rt.store.SchemaBootstrap()

	if err := bs.EnsureMessaging(ctx, exec); err != nil {
		return err
	}
	if err := bs.EnsureBroadcastRecipients(ctx, exec); err != nil {
		return err
	}
	if err := bs.EnsureMigrations(ctx, exec); err != nil {
		return err
	}
	tables := []string{
		schema.BroadcastsTable,
		schema.ContactsTable,
		schema.MsgsTable,
		schema.RecipientsTable,
		schema.MigrationsTable,
	}
	if rt.cfg.Checkpoint.Backend == config.CheckpointPostgres {
		if err := bs.EnsureHighpoints(ctx, exec); err != nil {
			return err
		}
		tables = append(tables, schema.HighpointsTable)
	}

	rt.log.Info().Strs("tables", tables).Msg("schema ready")
	return f.Success(InitResult{Tables: tables})
}
