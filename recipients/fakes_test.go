package recipients

import (
	"context"
	"errors"
	"slices"

	"github.com/ripkitten-co/backfill/msgs"
)

var errInjected = errors.New("injected failure")

// memParents is an in-memory ParentRepository. Recipients are kept as a list
// so duplicates would be visible.
type memParents struct {
	ids        []int64
	recipients map[int64][]int64
	batches    map[int64][]int
	cleared    []int64
	failAdd    map[int64]bool
}

func newMemParents(ids ...int64) *memParents {
	slices.Sort(ids)
	return &memParents{
		ids:        ids,
		recipients: make(map[int64][]int64),
		batches:    make(map[int64][]int),
		failAdd:    make(map[int64]bool),
	}
}

func (m *memParents) IDsAfter(_ context.Context, after int64) ([]int64, error) {
	var out []int64
	for _, id := range m.ids {
		if id > after {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memParents) ClearRecipients(_ context.Context, id int64) error {
	m.cleared = append(m.cleared, id)
	delete(m.recipients, id)
	return nil
}

func (m *memParents) AddRecipients(_ context.Context, id int64, contacts []int64) error {
	if m.failAdd[id] {
		return errInjected
	}
	m.batches[id] = append(m.batches[id], len(contacts))
	m.recipients[id] = append(m.recipients[id], contacts...)
	return nil
}

func (m *memParents) Recipients(_ context.Context, id int64) ([]int64, error) {
	out := slices.Clone(m.recipients[id])
	slices.Sort(out)
	return out, nil
}

// txParents wraps memParents as a Transactor that snapshots and restores
// state when fn fails.
type txParents struct {
	*memParents
	txCalls int
}

func (t *txParents) InTx(ctx context.Context, fn func(ctx context.Context, parents msgs.ParentRepository) error) error {
	t.txCalls++
	snapshot := make(map[int64][]int64, len(t.recipients))
	for k, v := range t.recipients {
		snapshot[k] = slices.Clone(v)
	}
	if err := fn(ctx, t.memParents); err != nil {
		t.recipients = snapshot
		return err
	}
	return nil
}

type memSources struct {
	refs map[int64][]*int64
	fail map[int64]bool
}

func newMemSources() *memSources {
	return &memSources{refs: make(map[int64][]*int64), fail: make(map[int64]bool)}
}

func (m *memSources) add(broadcastID int64, contacts ...int64) {
	for _, c := range contacts {
		m.refs[broadcastID] = append(m.refs[broadcastID], ptr(c))
	}
}

func (m *memSources) addNull(broadcastID int64) {
	m.refs[broadcastID] = append(m.refs[broadcastID], nil)
}

func (m *memSources) ContactRefs(_ context.Context, id int64) ([]*int64, error) {
	if m.fail[id] {
		return nil, errInjected
	}
	return m.refs[id], nil
}

func ptr(v int64) *int64 { return &v }

func seq(from, n int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = from + int64(i)
	}
	return out
}
