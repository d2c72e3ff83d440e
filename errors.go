package backfill

import "errors"

var (
	// ErrInvalidHighpoint is returned when a stored highpoint is not a
	// positive integer id.
	ErrInvalidHighpoint = errors.New("invalid highpoint")

	// ErrInvalidBatchSize is returned when the insert batch size is not
	// positive or would exceed the Postgres bind parameter limit.
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrMissingDependency is returned when a migration's predecessor has
	// not been applied.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrUnknownMigration is returned when a migration key is not registered.
	ErrUnknownMigration = errors.New("unknown migration")
)
