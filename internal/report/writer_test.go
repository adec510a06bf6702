package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/noxpand/retile/internal/model"
)

// createTestSummary creates a run summary with sample data for testing.
func createTestSummary() *model.RunSummary {
	summary := model.NewRunSummary("issue-42", "Orbital Drift #3", 4)
	summary.Succeeded = 3
	summary.Elapsed = 1234 * time.Millisecond
	summary.AddFailure(2, model.StageDecrypt, "page 2: decrypt tile: authentication failed")
	return summary
}

// createCompleteSummary creates a run summary where every page succeeded.
func createCompleteSummary() *model.RunSummary {
	summary := model.NewRunSummary("issue-7", "Orbital Drift #1", 2)
	summary.Succeeded = 2
	summary.Elapsed = 800 * time.Millisecond
	return summary
}

// TestSimpleWriter tests the human-readable summary writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "RETILE RUN SUMMARY") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "Orbital Drift #3") {
			t.Error("expected output to contain issue title")
		}
		if !strings.Contains(output, "issue-42") {
			t.Error("expected output to contain issue id")
		}
	})

	t.Run("writes page counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SUCCEEDED: 3") {
			t.Error("expected output to contain succeeded count")
		}
		if !strings.Contains(output, "FAILED:    1") {
			t.Error("expected output to contain failed count")
		}
	})

	t.Run("writes failed pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FAILED PAGES") {
			t.Error("expected output to contain failures section")
		}
		if !strings.Contains(output, "page 2 (decrypt)") {
			t.Error("expected output to contain the failed page and stage")
		}
	})

	t.Run("omits failures section when complete", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createCompleteSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "FAILED PAGES") {
			t.Error("expected failures section to be omitted")
		}
		if !strings.Contains(output, "Status:    Complete") {
			t.Error("expected complete status")
		}
	})

	t.Run("shows empty failures section with option", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		if _, err := w.Write(createCompleteSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No failed pages") {
			t.Error("expected empty failures section to be shown")
		}
	})
}

// TestJSONWriter tests the JSON summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes written, buffer holds %d", n, buf.Len())
		}

		var decoded model.RunSummary
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.IssueID != "issue-42" {
			t.Errorf("IssueID = %q, want %q", decoded.IssueID, "issue-42")
		}
		if len(decoded.Failures) != 1 {
			t.Fatalf("len(Failures) = %d, want 1", len(decoded.Failures))
		}
		if decoded.Failures[0].Stage != model.StageDecrypt {
			t.Errorf("failure stage = %q, want %q", decoded.Failures[0].Stage, model.StageDecrypt)
		}
	})

	t.Run("pretty print produces indented output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "\n  \"issue_id\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("omits failures field when empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createCompleteSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "failures") {
			t.Error("expected failures field to be omitted for a complete run")
		}
	})
}

// TestMarkdownWriter tests the Markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Retile Run Summary") {
			t.Error("expected markdown H1 header")
		}
		if !strings.Contains(output, "## Failed Pages") {
			t.Error("expected failed pages section")
		}
		if !strings.Contains(output, "decrypt") {
			t.Error("expected failure stage in table")
		}
	})

	t.Run("includes pie chart when pages failed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "```mermaid") {
			t.Error("expected mermaid chart for run with failures")
		}
	})

	t.Run("omits pie chart when complete", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createCompleteSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no mermaid chart for a complete run")
		}
		if !strings.Contains(output, "All pages were reconstructed") {
			t.Error("expected completion alert")
		}
	})
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("total = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("disk full")
		var buf bytes.Buffer
		mw := NewMultiWriter(
			NewJSONWriter(failWriter{err: wantErr}),
			NewJSONWriter(&buf),
		)

		if _, err := mw.Write(createTestSummary()); !errors.Is(err, wantErr) {
			t.Errorf("error = %v, want %v", err, wantErr)
		}
		if buf.Len() != 0 {
			t.Error("expected second writer to be skipped after error")
		}
	})
}

// failWriter is an io.Writer that always fails.
type failWriter struct {
	err error
}

func (f failWriter) Write([]byte) (int, error) {
	return 0, f.err
}
