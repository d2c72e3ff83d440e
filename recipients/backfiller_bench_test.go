package recipients

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/ripkitten-co/backfill/checkpoint"
)

func BenchmarkDistinctContacts(b *testing.B) {
	refs := make([]*int64, 0, 10000)
	for i := range 10000 {
		if i%10 == 0 {
			refs = append(refs, nil)
			continue
		}
		refs = append(refs, ptr(int64(i%3000)))
	}
	b.ReportAllocs()
	for b.Loop() {
		_ = distinctContacts(refs)
	}
}

func BenchmarkRecompute(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("contacts=%d", n), func(b *testing.B) {
			sources := newMemSources()
			sources.add(1, seq(1, int64(n))...)
			bf, err := New(newMemParents(1), sources, checkpoint.NewMemory(), WithProgress(io.Discard))
			if err != nil {
				b.Fatalf("new: %v", err)
			}
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				if _, err := bf.Recompute(ctx, 1); err != nil {
					b.Fatalf("recompute: %v", err)
				}
			}
		})
	}
}
