package msgs

import (
	"context"
	"fmt"

	"github.com/ripkitten-co/backfill"
)

// ParentRepository reads broadcasts and rewrites their recipient relation.
type ParentRepository interface {
	// IDsAfter returns the ids of all broadcasts with id > after, ascending.
	IDsAfter(ctx context.Context, after int64) ([]int64, error)
	// ClearRecipients removes every recipient entry of the broadcast.
	ClearRecipients(ctx context.Context, broadcastID int64) error
	// AddRecipients inserts one entry per contact id in a single statement.
	AddRecipients(ctx context.Context, broadcastID int64, contactIDs []int64) error
	// Recipients returns the stored contact ids of the broadcast, ascending.
	Recipients(ctx context.Context, broadcastID int64) ([]int64, error)
}

// SourceRepository reads the msgs a broadcast was delivered through.
type SourceRepository interface {
	// ContactRefs returns the contact reference of every msg of the
	// broadcast. A nil entry is a msg without a contact.
	ContactRefs(ctx context.Context, broadcastID int64) ([]*int64, error)
}

// Transactor is implemented by parent repositories that can run a clear and
// its inserts atomically.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, parents ParentRepository) error) error
}

// Drivers accepted by Open.
const (
	DriverPgx  = "pgx"
	DriverGORM = "gorm"
	DriverBun  = "bun"
)

// Repositories bundles the parent and source repositories of one driver.
type Repositories struct {
	Parents ParentRepository
	Sources SourceRepository
}

// Open builds the repositories for the named driver on top of store.
func Open(driver string, store *backfill.Store) (*Repositories, error) {
	switch driver {
	case DriverPgx, "":
		return &Repositories{
			Parents: NewBroadcasts(store),
			Sources: NewMessages(store),
		}, nil
	case DriverGORM:
		db, err := OpenGORM(store)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Parents: NewGORMBroadcasts(db),
			Sources: NewGORMMessages(db),
		}, nil
	case DriverBun:
		db := OpenBun(store)
		return &Repositories{
			Parents: NewBunBroadcasts(db),
			Sources: NewBunMessages(db),
		}, nil
	default:
		return nil, fmt.Errorf("msgs: unknown driver %q", driver)
	}
}
