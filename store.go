package backfill

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ripkitten-co/backfill/internal/pg"
	"github.com/ripkitten-co/backfill/schema"
)

// Store is the main entry point. It holds a PostgreSQL connection pool and the
// schema bootstrap shared by the repositories, checkpoint store and migration
// ledger built on top of it.
type Store struct {
	pool  *pg.Pool
	be    backend
	sqlDB *sql.DB
}

// New connects to PostgreSQL and returns a configured Store.
func New(ctx context.Context, connString string, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	pool, err := pg.NewPool(ctx, connString, cfg.maxConns)
	if err != nil {
		return nil, fmt.Errorf("backfill: %w", err)
	}

	s := &Store{
		pool: pool,
		be: backend{
			exec:   pool,
			schema: schema.New(),
		},
	}
	return s, nil
}

// Close shuts down the connection pool and any database/sql handle opened
// through SQLDB.
func (s *Store) Close() {
	if s.sqlDB != nil {
		_ = s.sqlDB.Close()
	}
	s.pool.Close()
}

// DBExecutor returns the underlying database executor.
func (s *Store) DBExecutor() pg.Executor { return s.be.exec }

// SchemaBootstrap returns the schema bootstrap manager.
func (s *Store) SchemaBootstrap() *schema.Bootstrap { return s.be.schema }

// SQLDB returns a database/sql handle over the same pool. The handle is
// created on first use and closed with the Store.
func (s *Store) SQLDB() *sql.DB {
	if s.sqlDB == nil {
		s.sqlDB = s.pool.SQLDB()
	}
	return s.sqlDB
}
