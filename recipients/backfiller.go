package recipients

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/ripkitten-co/backfill"
	"github.com/ripkitten-co/backfill/checkpoint"
	"github.com/ripkitten-co/backfill/msgs"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize bounds the number of recipient rows per insert statement.
	DefaultBatchSize = 1000

	// MaxBatchSize keeps a two-column insert under Postgres's 65535 bind
	// parameters.
	MaxBatchSize = 32767
)

type Option func(*Backfiller)

// WithBatchSize sets the number of recipient rows inserted per statement.
func WithBatchSize(n int) Option {
	return func(b *Backfiller) { b.batchSize = n }
}

// WithProgress redirects the per-broadcast progress lines (default stdout).
func WithProgress(w io.Writer) Option {
	return func(b *Backfiller) { b.progress = w }
}

// WithLogger sets the structured logger (default disabled).
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backfiller) { b.log = l }
}

// WithHighpointKey stores the highpoint under key instead of checkpoint.DefaultKey.
func WithHighpointKey(key string) Option {
	return func(b *Backfiller) { b.key = key }
}

// WithClock replaces time.Now for elapsed-time reporting.
func WithClock(now func() time.Time) Option {
	return func(b *Backfiller) { b.now = now }
}

// WithRateLimit caps how many broadcasts Run recomputes per second. Zero or
// less means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(b *Backfiller) {
		if perSecond <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRunID replaces the generator of the id that tags each Run's logs and
// report.
func WithRunID(next func() string) Option {
	return func(b *Backfiller) { b.runID = next }
}

func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Backfiller rebuilds broadcast recipients and tracks progress in a highpoint.
type Backfiller struct {
	parents   msgs.ParentRepository
	sources   msgs.SourceRepository
	highpoint *checkpoint.Highpoint
	key       string
	batchSize int
	progress  io.Writer
	log       zerolog.Logger
	now       func() time.Time
	runID     func() string
	limiter   *rate.Limiter
}

// New returns a Backfiller reading msgs from sources, rewriting recipients
// through parents and keeping its highpoint in kv.
func New(parents msgs.ParentRepository, sources msgs.SourceRepository, kv checkpoint.KV, opts ...Option) (*Backfiller, error) {
	b := &Backfiller{
		parents:   parents,
		sources:   sources,
		batchSize: DefaultBatchSize,
		progress:  os.Stdout,
		log:       zerolog.Nop(),
		now:       time.Now,
		runID:     newRunID,
	}
	for _, o := range opts {
		o(b)
	}
	if b.batchSize <= 0 || b.batchSize > MaxBatchSize {
		return nil, fmt.Errorf("recipients: batch size %d: %w", b.batchSize, backfill.ErrInvalidBatchSize)
	}
	b.highpoint = checkpoint.NewHighpoint(kv, b.key)
	return b, nil
}

// Highpoint returns the checkpoint the backfiller advances.
func (b *Backfiller) Highpoint() *checkpoint.Highpoint { return b.highpoint }

// Recompute replaces the recipients of broadcastID with the distinct non-null
// contacts of its msgs and returns how many were written. When the parent
// repository is a msgs.Transactor the clear and the inserts commit together.
func (b *Backfiller) Recompute(ctx context.Context, broadcastID int64) (int, error) {
	contactIDs, err := b.derive(ctx, broadcastID)
	if err != nil {
		return 0, err
	}

	write := func(ctx context.Context, parents msgs.ParentRepository) error {
		if err := parents.ClearRecipients(ctx, broadcastID); err != nil {
			return err
		}
		for batch := range slices.Chunk(contactIDs, b.batchSize) {
			if err := parents.AddRecipients(ctx, broadcastID, batch); err != nil {
				return err
			}
		}
		return nil
	}

	if tx, ok := b.parents.(msgs.Transactor); ok {
		err = tx.InTx(ctx, write)
	} else {
		err = write(ctx, b.parents)
	}
	if err != nil {
		return 0, fmt.Errorf("recompute %d: %w", broadcastID, err)
	}
	return len(contactIDs), nil
}

func (b *Backfiller) derive(ctx context.Context, broadcastID int64) ([]int64, error) {
	refs, err := b.sources.ContactRefs(ctx, broadcastID)
	if err != nil {
		return nil, fmt.Errorf("recompute %d: %w", broadcastID, err)
	}
	return distinctContacts(refs), nil
}

// distinctContacts drops nil references and duplicates. The result is sorted
// so inserts are deterministic.
func distinctContacts(refs []*int64) []int64 {
	seen := make(map[int64]struct{}, len(refs))
	out := make([]int64, 0, len(refs))
	for _, r := range refs {
		if r == nil {
			continue
		}
		if _, ok := seen[*r]; ok {
			continue
		}
		seen[*r] = struct{}{}
		out = append(out, *r)
	}
	slices.Sort(out)
	return out
}
