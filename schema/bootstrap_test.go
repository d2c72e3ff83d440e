package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExec struct {
	stmts []string
	fail  error
}

func (r *recordingExec) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	return pgconn.CommandTag{}, r.fail
}

func (r *recordingExec) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (r *recordingExec) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestRecipientsDDL(t *testing.T) {
	ddl := recipientsDDL()
	want := `CREATE TABLE IF NOT EXISTS msgs_broadcast_recipients (
	id BIGSERIAL PRIMARY KEY,
	broadcast_id BIGINT NOT NULL REFERENCES msgs_broadcast (id),
	contact_id BIGINT NOT NULL REFERENCES contacts_contact (id)
)`
	if ddl != want {
		t.Errorf("got:\n%s\nwant:\n%s", ddl, want)
	}
}

func TestRecipientsDDL_NoPairConstraint(t *testing.T) {
	if strings.Contains(recipientsDDL(), "UNIQUE") {
		t.Error("recipients table should not carry a unique constraint on the pair")
	}
}

func TestHighpointsDDL(t *testing.T) {
	ddl := highpointsDDL()
	want := `CREATE TABLE IF NOT EXISTS backfill_highpoints (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if ddl != want {
		t.Errorf("got:\n%s\nwant:\n%s", ddl, want)
	}
}

func TestMsgsDDL_NullableReferences(t *testing.T) {
	ddl := msgsDDL()
	for _, col := range []string{"broadcast_id BIGINT REFERENCES", "contact_id BIGINT REFERENCES"} {
		if !strings.Contains(ddl, col) {
			t.Errorf("msgs DDL missing nullable column %q", col)
		}
	}
}

func TestInvalidateTable_ForgetsTableAndIndexes(t *testing.T) {
	b := New()
	exec := &recordingExec{}
	ctx := context.Background()

	if err := b.EnsureBroadcastRecipients(ctx, exec); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b.InvalidateTable(RecipientsTable, recipientsIndex)
	if _, ok := b.tables.Load(RecipientsTable); ok {
		t.Error("table should be invalidated")
	}
	if _, ok := b.indexes.Load(recipientsIndex); ok {
		t.Error("index should be invalidated")
	}
}

func TestInvalidateTable_KeepsOtherIndexes(t *testing.T) {
	b := New()
	exec := &recordingExec{}
	ctx := context.Background()

	if err := b.EnsureMessaging(ctx, exec); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b.InvalidateTable(MsgsTable)
	if _, ok := b.indexes.Load("msgs_msg_broadcast_id"); !ok {
		t.Error("index not named in the call should stay cached")
	}
}

func TestEnsureMessaging_RunsDDLOnce(t *testing.T) {
	b := New()
	exec := &recordingExec{}
	ctx := context.Background()

	if err := b.EnsureMessaging(ctx, exec); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	first := len(exec.stmts)
	if first != 4 {
		t.Fatalf("got %d statements, want 4", first)
	}

	if err := b.EnsureMessaging(ctx, exec); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(exec.stmts) != first {
		t.Errorf("second ensure ran %d extra statements, want 0", len(exec.stmts)-first)
	}
}

func TestDropBroadcastRecipients_InvalidatesCache(t *testing.T) {
	b := New()
	exec := &recordingExec{}
	ctx := context.Background()

	if err := b.EnsureBroadcastRecipients(ctx, exec); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := b.DropBroadcastRecipients(ctx, exec); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok := b.tables.Load(RecipientsTable); ok {
		t.Error("table should be forgotten after drop")
	}

	before := len(exec.stmts)
	if err := b.EnsureBroadcastRecipients(ctx, exec); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	if len(exec.stmts) != before+2 {
		t.Errorf("re-ensure ran %d statements, want 2", len(exec.stmts)-before)
	}
}

func TestEnsure_WrapsError(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	exec := &recordingExec{fail: boom}

	err := b.EnsureHighpoints(context.Background(), exec)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
	if _, ok := b.tables.Load(HighpointsTable); ok {
		t.Error("failed DDL should not be cached")
	}
}
