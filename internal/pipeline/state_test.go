package pipeline

import (
	"testing"

	"github.com/noxpand/retile/internal/manifest"
	"github.com/noxpand/retile/internal/model"
)

// TestPageStateTransitions tests the one-directional state machine.
func TestPageStateTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from PageState
		to   PageState
		want bool
	}{
		{"pending to fetching", StatePending, StateFetchingTiles, true},
		{"fetching to decrypting", StateFetchingTiles, StateDecrypting, true},
		{"decrypting to assembling", StateDecrypting, StateAssembling, true},
		{"assembling to done", StateAssembling, StateDone, true},
		{"any state to failed", StateDecrypting, StateFailed, true},
		{"pending to failed", StatePending, StateFailed, true},
		{"no skipping ahead", StatePending, StateDecrypting, false},
		{"no going back", StateAssembling, StateFetchingTiles, false},
		{"done is terminal", StateDone, StateFailed, false},
		{"failed is terminal", StateFailed, StateFetchingTiles, false},
		{"failed stays failed", StateFailed, StateFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.from.canAdvance(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestPageJobFailIsSticky tests that the first fatal cause wins.
func TestPageJobFailIsSticky(t *testing.T) {
	t.Parallel()

	job := newPageJob(&manifest.PageSpec{Index: 3})
	job.advance(StateFetchingTiles)
	job.fail(model.StageFetch)

	// A later fail or advance must not overwrite the terminal state.
	job.fail(model.StageAssemble)
	job.advance(StateDecrypting)

	if job.state != StateFailed {
		t.Errorf("state = %s, want %s", job.state, StateFailed)
	}
	if job.failStage != model.StageFetch {
		t.Errorf("failStage = %s, want %s", job.failStage, model.StageFetch)
	}
}
