package pipeline

import (
	"github.com/noxpand/retile/internal/manifest"
	"github.com/noxpand/retile/internal/model"
)

// PageState is the lifecycle state of one page inside a run.
// Transitions are one-directional; Done and Failed are terminal.
type PageState uint8

const (
	// StatePending means the page has not been scheduled yet.
	StatePending PageState = iota
	// StateFetchingTiles means tile ciphertexts are being fetched.
	StateFetchingTiles
	// StateDecrypting means keys are being derived and tiles decrypted.
	StateDecrypting
	// StateAssembling means all tiles decrypted and stitching started.
	StateAssembling
	// StateDone means the page was assembled and handed to the buffer.
	StateDone
	// StateFailed means the page hit a fatal error. Terminal.
	StateFailed
)

// String returns the state name for logging.
func (s PageState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetchingTiles:
		return "fetching-tiles"
	case StateDecrypting:
		return "decrypting"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// canAdvance reports whether the transition s -> next is legal.
// Forward-only: each state may step to its successor, any non-terminal
// state may step to Failed, and terminal states admit nothing.
func (s PageState) canAdvance(next PageState) bool {
	if s == StateDone || s == StateFailed {
		return false
	}
	if next == StateFailed {
		return true
	}
	return next == s+1 && next <= StateDone
}

// pageJob tracks one page's progress through the run. It is owned by a
// single goroutine; no synchronization is needed.
type pageJob struct {
	spec  *manifest.PageSpec
	state PageState

	// failStage records the pipeline stage at which the page failed.
	// Only meaningful once state is StateFailed.
	failStage model.PageStage
}

func newPageJob(spec *manifest.PageSpec) *pageJob {
	return &pageJob{spec: spec, state: StatePending}
}

// advance moves the job to next if the transition is legal.
func (j *pageJob) advance(next PageState) {
	if j.state.canAdvance(next) {
		j.state = next
	}
}

// fail moves the job to StateFailed and records the failing stage.
func (j *pageJob) fail(stage model.PageStage) {
	if j.state.canAdvance(StateFailed) {
		j.state = StateFailed
		j.failStage = stage
	}
}
