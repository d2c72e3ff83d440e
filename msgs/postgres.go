package msgs

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/internal/pg"
	"github.com/ripkitten-co/backfill/schema"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, b backfill.Backend) error) error
}

// Broadcasts is the pgx ParentRepository.
type Broadcasts struct {
	exec pg.Executor
	tx   txRunner
}

// NewBroadcasts returns a ParentRepository over b. When b is a Store, InTx
// opens a session; when b is already a Session, InTx runs inline.
func NewBroadcasts(b backfill.Backend) *Broadcasts {
	r := &Broadcasts{exec: b.DBExecutor()}
	if tr, ok := b.(txRunner); ok {
		r.tx = tr
	}
	return r
}

func idsAfterQuery(after int64) (string, []any, error) {
	return psql.Select("id").
		From(schema.BroadcastsTable).
		Where(sq.Gt{"id": after}).
		OrderBy("id ASC").
		ToSql()
}

func (r *Broadcasts) IDsAfter(ctx context.Context, after int64) ([]int64, error) {
	query, args, err := idsAfterQuery(after)
	if err != nil {
		return nil, fmt.Errorf("broadcasts: ids after %d: build sql: %w", after, err)
	}

	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("broadcasts: ids after %d: %w", after, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("broadcasts: ids after %d: scan: %w", after, err)
	}
	return ids, nil
}

func (r *Broadcasts) ClearRecipients(ctx context.Context, broadcastID int64) error {
	query, args, err := psql.Delete(schema.RecipientsTable).
		Where(sq.Eq{"broadcast_id": broadcastID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("broadcasts: clear recipients %d: build sql: %w", broadcastID, err)
	}

	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("broadcasts: clear recipients %d: %w", broadcastID, err)
	}
	return nil
}

func addRecipientsQuery(broadcastID int64, contactIDs []int64) (string, []any, error) {
	builder := psql.Insert(schema.RecipientsTable).Columns("broadcast_id", "contact_id")
	for _, c := range contactIDs {
		builder = builder.Values(broadcastID, c)
	}
	return builder.ToSql()
}

func (r *Broadcasts) AddRecipients(ctx context.Context, broadcastID int64, contactIDs []int64) error {
	if len(contactIDs) == 0 {
		return nil
	}

	query, args, err := addRecipientsQuery(broadcastID, contactIDs)
	if err != nil {
		return fmt.Errorf("broadcasts: add recipients %d: build sql: %w", broadcastID, err)
	}

	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("broadcasts: add recipients %d: %w", broadcastID, err)
	}
	return nil
}

func (r *Broadcasts) Recipients(ctx context.Context, broadcastID int64) ([]int64, error) {
	query, args, err := psql.Select("contact_id").
		From(schema.RecipientsTable).
		Where(sq.Eq{"broadcast_id": broadcastID}).
		OrderBy("contact_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("broadcasts: recipients %d: build sql: %w", broadcastID, err)
	}

	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("broadcasts: recipients %d: %w", broadcastID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("broadcasts: recipients %d: scan: %w", broadcastID, err)
	}
	return ids, nil
}

func (r *Broadcasts) InTx(ctx context.Context, fn func(ctx context.Context, parents ParentRepository) error) error {
	if r.tx == nil {
		return fn(ctx, r)
	}
	return r.tx.InTx(ctx, func(ctx context.Context, b backfill.Backend) error {
		return fn(ctx, NewBroadcasts(b))
	})
}

// Messages is the pgx SourceRepository.
type Messages struct {
	exec pg.Executor
}

func NewMessages(b backfill.Backend) *Messages {
	return &Messages{exec: b.DBExecutor()}
}

func contactRefsQuery(broadcastID int64) (string, []any, error) {
	return psql.Select("contact_id").
		From(schema.MsgsTable).
		Where(sq.Eq{"broadcast_id": broadcastID}).
		ToSql()
}

func (m *Messages) ContactRefs(ctx context.Context, broadcastID int64) ([]*int64, error) {
	query, args, err := contactRefsQuery(broadcastID)
	if err != nil {
		return nil, fmt.Errorf("msgs: contact refs %d: build sql: %w", broadcastID, err)
	}

	rows, err := m.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("msgs: contact refs %d: %w", broadcastID, err)
	}
	refs, err := pgx.CollectRows(rows, pgx.RowTo[*int64])
	if err != nil {
		return nil, fmt.Errorf("msgs: contact refs %d: scan: %w", broadcastID, err)
	}
	return refs, nil
}
