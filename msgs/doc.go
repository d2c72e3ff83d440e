// Package msgs reads and rewrites the messaging tables the backfill works on:
// broadcasts and their recipient relation (ParentRepository) and the msgs
// that reference them (SourceRepository). The same contracts are implemented
// over pgx with squirrel-built SQL, over gorm and over bun, all sharing the
// Store's connection pool.
package msgs
