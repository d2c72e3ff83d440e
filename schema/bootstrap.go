package schema

import (
	"context"
	"fmt"
	"sync"

	"github.com/ripkitten-co/backfill/internal/pg"
)

// Table names. The messaging tables belong to the host application; the
// backfill only reads msgs_msg and rewrites msgs_broadcast_recipients.
const (
	BroadcastsTable = "msgs_broadcast"
	ContactsTable   = "contacts_contact"
	MsgsTable       = "msgs_msg"
	RecipientsTable = "msgs_broadcast_recipients"
	HighpointsTable = "backfill_highpoints"
	MigrationsTable = "backfill_migrations"
)

const recipientsIndex = "msgs_broadcast_recipients_broadcast_id"

func broadcastsDDL() string {
	return `CREATE TABLE IF NOT EXISTS msgs_broadcast (
	id BIGSERIAL PRIMARY KEY,
	text TEXT NOT NULL DEFAULT '',
	created_on TIMESTAMPTZ NOT NULL DEFAULT now()
)`
}

func contactsDDL() string {
	return `CREATE TABLE IF NOT EXISTS contacts_contact (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
)`
}

func msgsDDL() string {
	return `CREATE TABLE IF NOT EXISTS msgs_msg (
	id BIGSERIAL PRIMARY KEY,
	broadcast_id BIGINT REFERENCES msgs_broadcast (id),
	contact_id BIGINT REFERENCES contacts_contact (id),
	text TEXT NOT NULL DEFAULT ''
)`
}

func recipientsDDL() string {
	return `CREATE TABLE IF NOT EXISTS msgs_broadcast_recipients (
	id BIGSERIAL PRIMARY KEY,
	broadcast_id BIGINT NOT NULL REFERENCES msgs_broadcast (id),
	contact_id BIGINT NOT NULL REFERENCES contacts_contact (id)
)`
}

func highpointsDDL() string {
	return `CREATE TABLE IF NOT EXISTS backfill_highpoints (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
}

func migrationsDDL() string {
	return `CREATE TABLE IF NOT EXISTS backfill_migrations (
	app TEXT NOT NULL,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (app, name)
)`
}

// Bootstrap manages idempotent creation of tables and indexes.
// It caches which tables and indexes have been created to avoid repeated DDL.
type Bootstrap struct {
	tables  sync.Map
	indexes sync.Map
}

// New returns a Bootstrap with empty caches.
func New() *Bootstrap {
	return &Bootstrap{}
}

// InvalidateTable removes a table and the named indexes from the creation
// cache so the next Ensure call re-runs the DDL.
func (b *Bootstrap) InvalidateTable(table string, indexes ...string) {
	b.tables.Delete(table)
	for _, name := range indexes {
		b.indexes.Delete(name)
	}
}

func (b *Bootstrap) ensure(ctx context.Context, exec pg.Executor, table, ddl string) error {
	if _, ok := b.tables.Load(table); ok {
		return nil
	}
	if _, err := exec.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("schema: create table %s: %w", table, err)
	}
	b.tables.Store(table, true)
	return nil
}

func (b *Bootstrap) ensureIndex(ctx context.Context, exec pg.Executor, name, ddl string) error {
	if _, ok := b.indexes.Load(name); ok {
		return nil
	}
	if _, err := exec.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("schema: create index %s: %w", name, err)
	}
	b.indexes.Store(name, true)
	return nil
}

// EnsureMessaging creates the host application's broadcast, contact and msg
// tables. Production databases already have them; fresh databases used in
// development and tests do not.
func (b *Bootstrap) EnsureMessaging(ctx context.Context, exec pg.Executor) error {
	if err := b.ensure(ctx, exec, BroadcastsTable, broadcastsDDL()); err != nil {
		return err
	}
	if err := b.ensure(ctx, exec, ContactsTable, contactsDDL()); err != nil {
		return err
	}
	if err := b.ensure(ctx, exec, MsgsTable, msgsDDL()); err != nil {
		return err
	}
	return b.ensureIndex(ctx, exec, "msgs_msg_broadcast_id",
		`CREATE INDEX IF NOT EXISTS msgs_msg_broadcast_id ON msgs_msg (broadcast_id)`,
	)
}

// EnsureBroadcastRecipients creates the broadcast/contact relation table.
func (b *Bootstrap) EnsureBroadcastRecipients(ctx context.Context, exec pg.Executor) error {
	if err := b.ensure(ctx, exec, RecipientsTable, recipientsDDL()); err != nil {
		return err
	}
	return b.ensureIndex(ctx, exec, recipientsIndex,
		`CREATE INDEX IF NOT EXISTS msgs_broadcast_recipients_broadcast_id ON msgs_broadcast_recipients (broadcast_id)`,
	)
}

// DropBroadcastRecipients drops the relation table and forgets it was created.
func (b *Bootstrap) DropBroadcastRecipients(ctx context.Context, exec pg.Executor) error {
	if _, err := exec.Exec(ctx, `DROP TABLE IF EXISTS msgs_broadcast_recipients`); err != nil {
		return fmt.Errorf("schema: drop table %s: %w", RecipientsTable, err)
	}
	b.InvalidateTable(RecipientsTable, recipientsIndex)
	return nil
}

// EnsureHighpoints creates the key/value table backing Postgres checkpoints.
func (b *Bootstrap) EnsureHighpoints(ctx context.Context, exec pg.Executor) error {
	return b.ensure(ctx, exec, HighpointsTable, highpointsDDL())
}

// EnsureMigrations creates the applied-migrations ledger table.
func (b *Bootstrap) EnsureMigrations(ctx context.Context, exec pg.Executor) error {
	return b.ensure(ctx, exec, MigrationsTable, migrationsDDL())
}
