package msgs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ripkitten-co/backfill"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type bunBroadcast struct {
	bun.BaseModel `bun:"table:msgs_broadcast"`
	ID            int64 `bun:"id,pk,autoincrement"`
}

type bunMsg struct {
	bun.BaseModel `bun:"table:msgs_msg"`
	ID            int64         `bun:"id,pk,autoincrement"`
	BroadcastID   sql.NullInt64 `bun:"broadcast_id"`
	ContactID     sql.NullInt64 `bun:"contact_id"`
}

type bunRecipient struct {
	bun.BaseModel `bun:"table:msgs_broadcast_recipients"`
	ID            int64 `bun:"id,pk,autoincrement"`
	BroadcastID   int64 `bun:"broadcast_id"`
	ContactID     int64 `bun:"contact_id"`
}

// OpenBun opens a bun handle sharing the store's connection pool.
func OpenBun(store *backfill.Store) *bun.DB {
	return bun.NewDB(store.SQLDB(), pgdialect.New())
}

// BunBroadcasts is the bun ParentRepository.
type BunBroadcasts struct {
	db bun.IDB
}

func NewBunBroadcasts(db bun.IDB) *BunBroadcasts {
	return &BunBroadcasts{db: db}
}

func (r *BunBroadcasts) IDsAfter(ctx context.Context, after int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*bunBroadcast)(nil)).
		Column("id").
		Where("id > ?", after).
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("broadcasts: ids after %d: %w", after, err)
	}
	return ids, nil
}

func (r *BunBroadcasts) ClearRecipients(ctx context.Context, broadcastID int64) error {
	_, err := r.db.NewDelete().
		Model((*bunRecipient)(nil)).
		Where("broadcast_id = ?", broadcastID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("broadcasts: clear recipients %d: %w", broadcastID, err)
	}
	return nil
}

func (r *BunBroadcasts) AddRecipients(ctx context.Context, broadcastID int64, contactIDs []int64) error {
	if len(contactIDs) == 0 {
		return nil
	}

	rows := make([]bunRecipient, len(contactIDs))
	for i, c := range contactIDs {
		rows[i] = bunRecipient{BroadcastID: broadcastID, ContactID: c}
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("broadcasts: add recipients %d: %w", broadcastID, err)
	}
	return nil
}

func (r *BunBroadcasts) Recipients(ctx context.Context, broadcastID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*bunRecipient)(nil)).
		Column("contact_id").
		Where("broadcast_id = ?", broadcastID).
		Order("contact_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("broadcasts: recipients %d: %w", broadcastID, err)
	}
	return ids, nil
}

func (r *BunBroadcasts) InTx(ctx context.Context, fn func(ctx context.Context, parents ParentRepository) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &BunBroadcasts{db: tx})
	})
}

// BunMessages is the bun SourceRepository.
type BunMessages struct {
	db bun.IDB
}

func NewBunMessages(db bun.IDB) *BunMessages {
	return &BunMessages{db: db}
}

func (m *BunMessages) ContactRefs(ctx context.Context, broadcastID int64) ([]*int64, error) {
	var raw []sql.NullInt64
	err := m.db.NewSelect().
		Model((*bunMsg)(nil)).
		Column("contact_id").
		Where("broadcast_id = ?", broadcastID).
		Scan(ctx, &raw)
	if err != nil {
		return nil, fmt.Errorf("msgs: contact refs %d: %w", broadcastID, err)
	}

	refs := make([]*int64, len(raw))
	for i, r := range raw {
		if r.Valid {
			v := r.Int64
			refs[i] = &v
		}
	}
	return refs, nil
}
