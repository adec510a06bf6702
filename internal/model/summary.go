package model

import "time"

// PageStage names the pipeline stage at which a page failed.
type PageStage string

const (
	// StageFetch covers tile fetch failures, including exhausted retries.
	StageFetch PageStage = "fetch"
	// StageDerive covers key-derivation failures.
	StageDerive PageStage = "derive"
	// StageDecrypt covers decryption and integrity failures.
	StageDecrypt PageStage = "decrypt"
	// StageAssemble covers descrambling and stitching failures.
	StageAssemble PageStage = "assemble"
	// StageWrite covers archive sink failures.
	StageWrite PageStage = "write"
)

// PageFailure records one page that could not be reconstructed.
// Failures are reported per page; a multi-page run continues past them.
type PageFailure struct {
	// Page is the 0-based page index that failed.
	Page int `json:"page"`

	// Stage is the pipeline stage that produced the failure.
	Stage PageStage `json:"stage"`

	// Reason is the human-readable cause.
	Reason string `json:"reason"`
}

// RunSummary is the outcome of one pipeline run over a single issue.
// It backs the text, JSON, and Markdown report writers.
type RunSummary struct {
	// IssueID is the storefront item identifier of the issue.
	IssueID string `json:"issue_id"`

	// Title is the issue release name.
	Title string `json:"title"`

	// Pages is the total number of pages the manifest declared.
	Pages int `json:"pages"`

	// Succeeded is the number of pages emitted to the sink.
	Succeeded int `json:"succeeded"`

	// Failures lists pages that failed, in page order.
	Failures []PageFailure `json:"failures,omitempty"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// NewRunSummary creates a RunSummary for an issue with the given page count.
func NewRunSummary(issueID, title string, pages int) *RunSummary {
	return &RunSummary{
		IssueID: issueID,
		Title:   title,
		Pages:   pages,
	}
}

// AddFailure records a page failure.
func (s *RunSummary) AddFailure(page int, stage PageStage, reason string) {
	s.Failures = append(s.Failures, PageFailure{Page: page, Stage: stage, Reason: reason})
}

// Complete reports whether every page was reconstructed.
func (s *RunSummary) Complete() bool {
	return s.Succeeded == s.Pages && len(s.Failures) == 0
}
