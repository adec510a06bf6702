package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noxpand/retile/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting and no ANSI color codes.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether the failures section is shown
	// even when every page succeeded.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeFailures(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with issue information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          RETILE RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Issue:     %s\n", summary.Title))
	sb.WriteString(fmt.Sprintf("Issue ID:  %s\n", summary.IssueID))
	sb.WriteString(fmt.Sprintf("Elapsed:   %s\n", summary.Elapsed.Round(time.Millisecond)))

	if summary.Complete() {
		sb.WriteString("Status:    Complete\n")
	} else {
		sb.WriteString(fmt.Sprintf("Status:    INCOMPLETE (%d of %d pages failed)\n",
			len(summary.Failures), summary.Pages))
	}

	sb.WriteString("\n")
}

// writeCounts writes the page count section.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:     %d\n", summary.Pages))
	sb.WriteString(fmt.Sprintf("  SUCCEEDED: %d\n", summary.Succeeded))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", len(summary.Failures)))
	sb.WriteString("\n")
}

// writeFailures writes the per-page failure section.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *model.RunSummary) {
	if len(summary.Failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.Failures) == 0 {
		sb.WriteString("  No failed pages\n")
	} else {
		for _, f := range summary.Failures {
			sb.WriteString(fmt.Sprintf("  [!] page %d (%s): %s\n", f.Page, f.Stage, f.Reason))
		}
	}
	sb.WriteString("\n")
}
