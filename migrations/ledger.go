package migrations

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/internal/pg"
	"github.com/ripkitten-co/backfill/schema"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Ledger records which migrations have been applied.
type Ledger interface {
	Applied(ctx context.Context) (map[Key]bool, error)
	Record(ctx context.Context, k Key) error
	Forget(ctx context.Context, k Key) error
}

// PostgresLedger keeps applied migrations in backfill_migrations.
type PostgresLedger struct {
	exec   pg.Executor
	schema *schema.Bootstrap
}

func NewPostgresLedger(b backfill.Backend) *PostgresLedger {
	return &PostgresLedger{
		exec:   b.DBExecutor(),
		schema: b.SchemaBootstrap(),
	}
}

func (l *PostgresLedger) ensure(ctx context.Context) error {
	return l.schema.EnsureMigrations(ctx, l.exec)
}

func (l *PostgresLedger) Applied(ctx context.Context) (map[Key]bool, error) {
	if err := l.ensure(ctx); err != nil {
		return nil, fmt.Errorf("ledger: ensure table: %w", err)
	}

	query, args, err := psql.Select("app", "name").From(schema.MigrationsTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger: applied: build sql: %w", err)
	}
	rows, err := l.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: applied: %w", err)
	}
	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Key, error) {
		var k Key
		err := row.Scan(&k.App, &k.Name)
		return k, err
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: applied: scan: %w", err)
	}

	applied := make(map[Key]bool, len(keys))
	for _, k := range keys {
		applied[k] = true
	}
	return applied, nil
}

func (l *PostgresLedger) Record(ctx context.Context, k Key) error {
	if err := l.ensure(ctx); err != nil {
		return fmt.Errorf("ledger: ensure table: %w", err)
	}

	query, args, err := psql.Insert(schema.MigrationsTable).
		Columns("app", "name").
		Values(k.App, k.Name).
		Suffix("ON CONFLICT (app, name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger: record %s: build sql: %w", k, err)
	}
	if _, err := l.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ledger: record %s: %w", k, err)
	}
	return nil
}

func (l *PostgresLedger) Forget(ctx context.Context, k Key) error {
	if err := l.ensure(ctx); err != nil {
		return fmt.Errorf("ledger: ensure table: %w", err)
	}

	query, args, err := psql.Delete(schema.MigrationsTable).
		Where(sq.Eq{"app": k.App, "name": k.Name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger: forget %s: build sql: %w", k, err)
	}
	if _, err := l.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ledger: forget %s: %w", k, err)
	}
	return nil
}
