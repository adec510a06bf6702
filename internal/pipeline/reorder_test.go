package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/noxpand/retile/internal/model"
)

// TestReorderBufferHoldsUntilPredecessors tests that out-of-order
// completions flush to the sink strictly in sequence order.
func TestReorderBufferHoldsUntilPredecessors(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	buf := newReorderBuffer(sink)
	ctx := context.Background()

	if err := buf.emit(ctx, 2, &model.AssembledPage{Index: 2}); err != nil {
		t.Fatalf("emit(2) error: %v", err)
	}
	if err := buf.emit(ctx, 1, &model.AssembledPage{Index: 1}); err != nil {
		t.Fatalf("emit(1) error: %v", err)
	}
	if got := sink.indexes(); len(got) != 0 {
		t.Fatalf("sink received %v before sequence 0 completed", got)
	}

	if err := buf.emit(ctx, 0, &model.AssembledPage{Index: 0}); err != nil {
		t.Fatalf("emit(0) error: %v", err)
	}
	want := []int{0, 1, 2}
	got := sink.indexes()
	if len(got) != 3 {
		t.Fatalf("sink received %d pages, want 3", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flush order = %v, want %v", got, want)
		}
	}
}

// TestReorderBufferSkipsFailedPages tests that a failed slot does not
// hold back its successors.
func TestReorderBufferSkipsFailedPages(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	buf := newReorderBuffer(sink)
	ctx := context.Background()

	if err := buf.emit(ctx, 1, &model.AssembledPage{Index: 1}); err != nil {
		t.Fatalf("emit(1) error: %v", err)
	}
	if got := sink.indexes(); len(got) != 0 {
		t.Fatalf("sink received %v before slot 0 resolved", got)
	}
	if err := buf.skip(ctx, 0); err != nil {
		t.Fatalf("skip(0) error: %v", err)
	}
	if got := sink.indexes(); len(got) != 1 || got[0] != 1 {
		t.Errorf("sink pages = %v, want [1]", got)
	}
}

// failingSink fails every write.
type failingSink struct{ err error }

func (s *failingSink) WritePage(context.Context, *model.AssembledPage) error { return s.err }

// TestReorderBufferPropagatesSinkErrors tests that a sink write failure
// surfaces from the triggering emit.
func TestReorderBufferPropagatesSinkErrors(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("disk full")
	buf := newReorderBuffer(&failingSink{err: sinkErr})

	err := buf.emit(context.Background(), 0, &model.AssembledPage{Index: 0})
	if !errors.Is(err, sinkErr) {
		t.Errorf("emit() error = %v, want sink error", err)
	}
}
