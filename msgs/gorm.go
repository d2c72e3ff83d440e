package msgs

import (
	"context"
	"fmt"
	"time"

	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/schema"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Broadcast is the gorm model of msgs_broadcast.
type Broadcast struct {
	ID        int64 `gorm:"primaryKey"`
	Text      string
	CreatedOn time.Time
}

func (Broadcast) TableName() string { return schema.BroadcastsTable }

// Msg is the gorm model of msgs_msg.
type Msg struct {
	ID          int64 `gorm:"primaryKey"`
	BroadcastID *int64
	ContactID   *int64
	Text        string
}

func (Msg) TableName() string { return schema.MsgsTable }

// BroadcastRecipient is the gorm model of msgs_broadcast_recipients.
type BroadcastRecipient struct {
	ID          int64 `gorm:"primaryKey"`
	BroadcastID int64
	ContactID   int64
}

func (BroadcastRecipient) TableName() string { return schema.RecipientsTable }

// OpenGORM opens a gorm handle sharing the store's connection pool.
func OpenGORM(store *backfill.Store) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: store.SQLDB()}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("msgs: open gorm: %w", err)
	}
	return db, nil
}

// GORMBroadcasts is the gorm ParentRepository.
type GORMBroadcasts struct {
	db *gorm.DB
}

func NewGORMBroadcasts(db *gorm.DB) *GORMBroadcasts {
	return &GORMBroadcasts{db: db}
}

func (r *GORMBroadcasts) IDsAfter(ctx context.Context, after int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&Broadcast{}).
		Where("id > ?", after).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("broadcasts: ids after %d: %w", after, err)
	}
	return ids, nil
}

func (r *GORMBroadcasts) ClearRecipients(ctx context.Context, broadcastID int64) error {
	err := r.db.WithContext(ctx).
		Where("broadcast_id = ?", broadcastID).
		Delete(&BroadcastRecipient{}).Error
	if err != nil {
		return fmt.Errorf("broadcasts: clear recipients %d: %w", broadcastID, err)
	}
	return nil
}

func (r *GORMBroadcasts) AddRecipients(ctx context.Context, broadcastID int64, contactIDs []int64) error {
	if len(contactIDs) == 0 {
		return nil
	}

	rows := make([]BroadcastRecipient, len(contactIDs))
	for i, c := range contactIDs {
		rows[i] = BroadcastRecipient{BroadcastID: broadcastID, ContactID: c}
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("broadcasts: add recipients %d: %w", broadcastID, err)
	}
	return nil
}

func (r *GORMBroadcasts) Recipients(ctx context.Context, broadcastID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&BroadcastRecipient{}).
		Where("broadcast_id = ?", broadcastID).
		Order("contact_id ASC").
		Pluck("contact_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("broadcasts: recipients %d: %w", broadcastID, err)
	}
	return ids, nil
}

func (r *GORMBroadcasts) InTx(ctx context.Context, fn func(ctx context.Context, parents ParentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GORMBroadcasts{db: tx})
	})
}

// GORMMessages is the gorm SourceRepository.
type GORMMessages struct {
	db *gorm.DB
}

func NewGORMMessages(db *gorm.DB) *GORMMessages {
	return &GORMMessages{db: db}
}

func (m *GORMMessages) ContactRefs(ctx context.Context, broadcastID int64) ([]*int64, error) {
	var refs []*int64
	err := m.db.WithContext(ctx).
		Model(&Msg{}).
		Where("broadcast_id = ?", broadcastID).
		Pluck("contact_id", &refs).Error
	if err != nil {
		return nil, fmt.Errorf("msgs: contact refs %d: %w", broadcastID, err)
	}
	return refs, nil
}
