package pipeline

import (
	"context"
	"sync"

	"github.com/noxpand/retile/internal/model"
)

// reorderBuffer hands completed pages to the sink in strictly increasing
// sequence order, no matter in which order page goroutines finish. Failed
// pages are skipped over so later pages still flush.
//
// Sequence numbers are the page's position in the manifest's page list,
// which is the caller-requested emission order.
type reorderBuffer struct {
	mu      sync.Mutex
	sink    Sink
	next    int
	pending map[int]*model.AssembledPage
	skipped map[int]bool
}

func newReorderBuffer(sink Sink) *reorderBuffer {
	return &reorderBuffer{
		sink:    sink,
		pending: make(map[int]*model.AssembledPage),
		skipped: make(map[int]bool),
	}
}

// emit buffers a completed page and flushes every page that is now
// emittable. The sink write happens under the buffer lock, so writes are
// serialized and ordered.
func (b *reorderBuffer) emit(ctx context.Context, seq int, page *model.AssembledPage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[seq] = page
	return b.flushLocked(ctx)
}

// skip marks a failed page's slot so successors are not held back.
func (b *reorderBuffer) skip(ctx context.Context, seq int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.skipped[seq] = true
	return b.flushLocked(ctx)
}

func (b *reorderBuffer) flushLocked(ctx context.Context) error {
	for {
		if page, ok := b.pending[b.next]; ok {
			delete(b.pending, b.next)
			if err := b.sink.WritePage(ctx, page); err != nil {
				return err
			}
			b.next++
			continue
		}
		if b.skipped[b.next] {
			delete(b.skipped, b.next)
			b.next++
			continue
		}
		return nil
	}
}
