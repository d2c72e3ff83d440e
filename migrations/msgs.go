package migrations

import (
	"context"

	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/recipients"
)

var (
	BroadcastRecipientsKey = Key{App: "msgs", Name: "0064_broadcast_recipients"}
	BackfillRecipientsKey  = Key{App: "msgs", Name: "0065_backfill_broadcast_contact_recipients"}
)

// BroadcastRecipients creates the broadcast/contact relation the backfill
// writes to. Reversing it drops the table.
func BroadcastRecipients(b backfill.Backend) Migration {
	return Migration{
		Key: BroadcastRecipientsKey,
		Forward: func(ctx context.Context) error {
			return b.SchemaBootstrap().EnsureBroadcastRecipients(ctx, b.DBExecutor())
		},
		Backward: func(ctx context.Context) error {
			return b.SchemaBootstrap().DropBroadcastRecipients(ctx, b.DBExecutor())
		},
	}
}

// BackfillRecipients rebuilds every broadcast's recipients. Reversing it is a
// no-op: the rebuilt relation is left in place.
func BackfillRecipients(bf *recipients.Backfiller) Migration {
	return Migration{
		Key:          BackfillRecipientsKey,
		Dependencies: []Key{BroadcastRecipientsKey},
		Forward: func(ctx context.Context) error {
			_, err := bf.Run(ctx)
			return err
		},
		Backward: Noop,
	}
}

// Messaging returns the recipient migrations in dependency order.
func Messaging(b backfill.Backend, bf *recipients.Backfiller) []Migration {
	return []Migration{
		BroadcastRecipients(b),
		BackfillRecipients(bf),
	}
}
