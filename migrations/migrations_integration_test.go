//go:build integration

package migrations_test

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/checkpoint"
	"github.com/ripkitten-co/backfill/internal/testutil"
	"github.com/ripkitten-co/backfill/migrations"
	"github.com/ripkitten-co/backfill/msgs"
	"github.com/ripkitten-co/backfill/recipients"
	"github.com/rs/zerolog"
)

func TestMessagingMigrations(t *testing.T) {
	connStr := testutil.SetupPostgres(t)
	ctx := context.Background()
	store, err := backfill.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	exec := store.DBExecutor()
	if err := store.SchemaBootstrap().EnsureMessaging(ctx, exec); err != nil {
		t.Fatalf("ensure messaging: %v", err)
	}
	id := testutil.SeedBroadcast(t, exec)
	contacts := testutil.SeedContacts(t, exec, 2)
	testutil.SeedMsg(t, exec, &id, &contacts[0])
	testutil.SeedMsg(t, exec, &id, &contacts[1])
	testutil.SeedMsg(t, exec, &id, &contacts[1])

	repos, err := msgs.Open(msgs.DriverPgx, store)
	if err != nil {
		t.Fatalf("open repos: %v", err)
	}
	bf, err := recipients.New(repos.Parents, repos.Sources, checkpoint.NewPostgres(store),
		recipients.WithProgress(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("new backfiller: %v", err)
	}

	ledger := migrations.NewPostgresLedger(store)
	runner := migrations.NewRunner(ledger, zerolog.Nop(), migrations.Messaging(store, bf)...)

	done, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	want := []migrations.Key{migrations.BroadcastRecipientsKey, migrations.BackfillRecipientsKey}
	if !reflect.DeepEqual(done, want) {
		t.Errorf("applied: got %v, want %v", done, want)
	}

	got, err := repos.Parents.Recipients(ctx, id)
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if !reflect.DeepEqual(got, contacts) {
		t.Errorf("recipients: got %v, want %v", got, contacts)
	}

	applied, err := ledger.Applied(ctx)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if !applied[migrations.BackfillRecipientsKey] {
		t.Error("backfill migration should be recorded")
	}

	// reversing the backfill keeps the rebuilt relation
	if err := runner.Down(ctx, migrations.BackfillRecipientsKey); err != nil {
		t.Fatalf("down: %v", err)
	}
	got, err = repos.Parents.Recipients(ctx, id)
	if err != nil {
		t.Fatalf("recipients after down: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("recipients after noop reverse: got %v, want 2 entries", got)
	}

	pending, err := runner.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !reflect.DeepEqual(pending, []migrations.Key{migrations.BackfillRecipientsKey}) {
		t.Errorf("pending: got %v", pending)
	}
}
