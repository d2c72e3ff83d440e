package checkpoint

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/internal/pg"
	"github.com/ripkitten-co/backfill/schema"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres keeps keys in the backfill_highpoints table.
type Postgres struct {
	exec   pg.Executor
	schema *schema.Bootstrap
}

// NewPostgres creates a KV backed by the given backend.
func NewPostgres(b backfill.Backend) *Postgres {
	return &Postgres{
		exec:   b.DBExecutor(),
		schema: b.SchemaBootstrap(),
	}
}

func (p *Postgres) ensure(ctx context.Context) error {
	return p.schema.EnsureHighpoints(ctx, p.exec)
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	if err := p.ensure(ctx); err != nil {
		return "", false, fmt.Errorf("kv %s: ensure table: %w", key, err)
	}

	query, args, err := psql.Select("value").
		From(schema.HighpointsTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("kv %s: get: build sql: %w", key, err)
	}

	var value string
	err = p.exec.QueryRow(ctx, query, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv %s: get: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if err := p.ensure(ctx); err != nil {
		return fmt.Errorf("kv %s: ensure table: %w", key, err)
	}

	query, args, err := psql.Insert(schema.HighpointsTable).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("now()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("kv %s: set: build sql: %w", key, err)
	}

	if _, err := p.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("kv %s: set: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if err := p.ensure(ctx); err != nil {
		return fmt.Errorf("kv %s: ensure table: %w", key, err)
	}

	query, args, err := psql.Delete(schema.HighpointsTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("kv %s: delete: build sql: %w", key, err)
	}

	if _, err := p.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("kv %s: delete: %w", key, err)
	}
	return nil
}
