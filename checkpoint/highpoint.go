package checkpoint

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ripkitten-co/backfill"
)

// DefaultKey is the key the highpoint is stored under.
const DefaultKey = "recipient_backfill_highpoint"

// KV is the minimal durable key/value contract the highpoint needs.
// Get reports ok=false when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Highpoint reads and writes the last processed broadcast id under one key.
type Highpoint struct {
	kv  KV
	key string
}

// NewHighpoint returns a Highpoint stored under key in kv. An empty key
// selects DefaultKey.
func NewHighpoint(kv KV, key string) *Highpoint {
	if key == "" {
		key = DefaultKey
	}
	return &Highpoint{kv: kv, key: key}
}

// Key returns the key the highpoint is stored under.
func (h *Highpoint) Key() string { return h.key }

// Load returns the stored id. ok is false when no run is in progress.
func (h *Highpoint) Load(ctx context.Context) (id int64, ok bool, err error) {
	raw, ok, err := h.kv.Get(ctx, h.key)
	if err != nil {
		return 0, false, fmt.Errorf("highpoint %s: load: %w", h.key, err)
	}
	if !ok {
		return 0, false, nil
	}

	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("highpoint %s: load %q: %w", h.key, raw, backfill.ErrInvalidHighpoint)
	}
	return id, true, nil
}

// Save records id as the last fully processed broadcast.
func (h *Highpoint) Save(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("highpoint %s: save %d: %w", h.key, id, backfill.ErrInvalidHighpoint)
	}
	if err := h.kv.Set(ctx, h.key, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("highpoint %s: save: %w", h.key, err)
	}
	return nil
}

// Clear removes the highpoint, marking the backfill as not in progress.
func (h *Highpoint) Clear(ctx context.Context) error {
	if err := h.kv.Delete(ctx, h.key); err != nil {
		return fmt.Errorf("highpoint %s: clear: %w", h.key, err)
	}
	return nil
}
