//go:build integration

package testutil

import (
	"context"
	"testing"

	"github.com/ripkitten-co/backfill/internal/pg"
)

// SeedBroadcast inserts a broadcast and returns its id.
func SeedBroadcast(t testing.TB, exec pg.Executor) int64 {
	t.Helper()
	var id int64
	err := exec.QueryRow(context.Background(),
		`INSERT INTO msgs_broadcast (text) VALUES ('seed') RETURNING id`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed broadcast: %v", err)
	}
	return id
}

// SeedContacts inserts n contacts and returns their ids in ascending order.
func SeedContacts(t testing.TB, exec pg.Executor, n int) []int64 {
	t.Helper()
	rows, err := exec.Query(context.Background(),
		`INSERT INTO contacts_contact (name) SELECT 'c' || g FROM generate_series(1, $1) g RETURNING id`,
		n,
	)
	if err != nil {
		t.Fatalf("seed contacts: %v", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan contact: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("seed contacts rows: %v", err)
	}
	return ids
}

// SeedMsg inserts a msg. Pass nil for a msg without broadcast or contact.
func SeedMsg(t testing.TB, exec pg.Executor, broadcastID, contactID *int64) {
	t.Helper()
	_, err := exec.Exec(context.Background(),
		`INSERT INTO msgs_msg (broadcast_id, contact_id) VALUES ($1, $2)`,
		broadcastID, contactID,
	)
	if err != nil {
		t.Fatalf("seed msg: %v", err)
	}
}

// SeedRecipient inserts a recipient entry directly, bypassing the backfill.
func SeedRecipient(t testing.TB, exec pg.Executor, broadcastID, contactID int64) {
	t.Helper()
	_, err := exec.Exec(context.Background(),
		`INSERT INTO msgs_broadcast_recipients (broadcast_id, contact_id) VALUES ($1, $2)`,
		broadcastID, contactID,
	)
	if err != nil {
		t.Fatalf("seed recipient: %v", err)
	}
}

// Ptr returns a pointer to v.
func Ptr(v int64) *int64 { return &v }
