package recipients

import (
	"context"
	"fmt"
)

// Status describes the backfill state as seen from the highpoint.
type Status struct {
	InProgress bool  `json:"in_progress"`
	Highpoint  int64 `json:"highpoint"`
	Pending    int   `json:"pending"`
}

// Status reports whether a run is in progress and how many broadcasts a Run
// started now would process. An absent highpoint reads the same whether the
// backfill never ran or completed.
func (b *Backfiller) Status(ctx context.Context) (Status, error) {
	after, ok, err := b.highpoint.Load(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	ids, err := b.parents.IDsAfter(ctx, after)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return Status{InProgress: ok, Highpoint: after, Pending: len(ids)}, nil
}

// Consistency compares a broadcast's stored recipients with the set derived
// from its msgs.
type Consistency struct {
	BroadcastID int64   `json:"broadcast_id"`
	Expected    int     `json:"expected"`
	Stored      int     `json:"stored"`
	Missing     []int64 `json:"missing,omitempty"`
	Extra       []int64 `json:"extra,omitempty"`
	Duplicates  int     `json:"duplicates"`
}

// OK reports whether the stored set matches the derived one exactly.
func (c Consistency) OK() bool {
	return len(c.Missing) == 0 && len(c.Extra) == 0 && c.Duplicates == 0
}

// Verify checks one broadcast without modifying it.
func (b *Backfiller) Verify(ctx context.Context, broadcastID int64) (Consistency, error) {
	want, err := b.derive(ctx, broadcastID)
	if err != nil {
		return Consistency{}, fmt.Errorf("verify: %w", err)
	}
	stored, err := b.parents.Recipients(ctx, broadcastID)
	if err != nil {
		return Consistency{}, fmt.Errorf("verify %d: %w", broadcastID, err)
	}

	c := Consistency{BroadcastID: broadcastID, Expected: len(want), Stored: len(stored)}

	have := make(map[int64]int, len(stored))
	for _, id := range stored {
		have[id]++
		if have[id] == 2 {
			c.Duplicates++
		}
	}
	expected := make(map[int64]struct{}, len(want))
	for _, id := range want {
		expected[id] = struct{}{}
		if have[id] == 0 {
			c.Missing = append(c.Missing, id)
		}
	}
	for _, id := range stored {
		if _, ok := expected[id]; !ok && have[id] > 0 {
			c.Extra = append(c.Extra, id)
			have[id] = 0
		}
	}
	return c, nil
}
