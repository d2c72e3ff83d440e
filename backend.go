package backfill

import (
	"github.com/ripkitten-co/backfill/internal/pg"
	"github.com/ripkitten-co/backfill/schema"
)

type backend struct {
	exec   pg.Executor
	schema *schema.Bootstrap
}

// Backend is implemented by Store and Session. Repositories and checkpoint
// stores take a Backend so they run the same way inside or outside a
// transaction.
type Backend interface {
	DBExecutor() pg.Executor
	SchemaBootstrap() *schema.Bootstrap
}
