//go:build integration

package checkpoint_test

import (
	"context"
	"testing"

	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/checkpoint"
	"github.com/ripkitten-co/backfill/internal/testutil"
)

func exerciseKV(t *testing.T, kv checkpoint.KV) {
	t.Helper()
	ctx := context.Background()
	h := checkpoint.NewHighpoint(kv, "integration_highpoint")

	if _, ok, err := h.Load(ctx); err != nil || ok {
		t.Fatalf("initial load: got (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	for _, id := range []int64{3, 9, 27} {
		if err := h.Save(ctx, id); err != nil {
			t.Fatalf("save %d: %v", id, err)
		}
		got, ok, err := h.Load(ctx)
		if err != nil {
			t.Fatalf("load after save %d: %v", id, err)
		}
		if !ok || got != id {
			t.Errorf("load after save: got (%d, %v), want (%d, true)", got, ok, id)
		}
	}

	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, err := h.Load(ctx); err != nil || ok {
		t.Errorf("load after clear: got (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestPostgresKV(t *testing.T) {
	connStr := testutil.SetupPostgres(t)
	store, err := backfill.New(context.Background(), connStr)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	exerciseKV(t, checkpoint.NewPostgres(store))
}

func TestRedisKV(t *testing.T) {
	addr := testutil.SetupRedis(t)
	kv, err := checkpoint.DialRedis(context.Background(), addr, "", 0)
	if err != nil {
		t.Fatalf("dial redis: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	exerciseKV(t, kv)
}
