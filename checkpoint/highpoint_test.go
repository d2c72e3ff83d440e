package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/ripkitten-co/backfill"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Set(context.Context, string, string) error         { return f.err }
func (f failingKV) Delete(context.Context, string) error              { return f.err }

func TestHighpoint_AbsentMeansNotInProgress(t *testing.T) {
	h := NewHighpoint(NewMemory(), "")
	id, ok, err := h.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Error("ok: got true, want false")
	}
	if id != 0 {
		t.Errorf("id: got %d, want 0", id)
	}
}

func TestHighpoint_DefaultKey(t *testing.T) {
	h := NewHighpoint(NewMemory(), "")
	if h.Key() != "recipient_backfill_highpoint" {
		t.Errorf("got %q, want %q", h.Key(), "recipient_backfill_highpoint")
	}
}

func TestHighpoint_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	h := NewHighpoint(kv, "hp")

	if err := h.Save(ctx, 42); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, _ := kv.Get(ctx, "hp")
	if !ok || raw != "42" {
		t.Errorf("stored value: got %q (ok=%v), want %q", raw, ok, "42")
	}

	id, ok, err := h.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || id != 42 {
		t.Errorf("load: got (%d, %v), want (42, true)", id, ok)
	}

	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := h.Load(ctx); ok {
		t.Error("highpoint should be absent after clear")
	}
}

func TestHighpoint_ClearWhenAbsent(t *testing.T) {
	h := NewHighpoint(NewMemory(), "")
	if err := h.Clear(context.Background()); err != nil {
		t.Errorf("clear absent: %v", err)
	}
}

func TestHighpoint_InvalidStoredValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"negative", "-3"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemory()
			_ = kv.Set(ctx, DefaultKey, tt.value)

			_, _, err := NewHighpoint(kv, "").Load(ctx)
			if !errors.Is(err, backfill.ErrInvalidHighpoint) {
				t.Errorf("got %v, want ErrInvalidHighpoint", err)
			}
		})
	}
}

func TestHighpoint_SaveRejectsNonPositive(t *testing.T) {
	err := NewHighpoint(NewMemory(), "").Save(context.Background(), 0)
	if !errors.Is(err, backfill.ErrInvalidHighpoint) {
		t.Errorf("got %v, want ErrInvalidHighpoint", err)
	}
}

func TestHighpoint_WrapsStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	h := NewHighpoint(failingKV{err: boom}, "")

	if _, _, err := h.Load(ctx); !errors.Is(err, boom) {
		t.Errorf("load: got %v, want wrapped boom", err)
	}
	if err := h.Save(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("save: got %v, want wrapped boom", err)
	}
	if err := h.Clear(ctx); !errors.Is(err, boom) {
		t.Errorf("clear: got %v, want wrapped boom", err)
	}
}
