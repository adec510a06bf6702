package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/noxpand/retile/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writePageChart(md, summary)
	w.writeAlert(md, summary)
	w.writeFailures(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with issue information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Retile Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Issue", summary.Title},
			{"Issue ID", "`" + summary.IssueID + "`"},
			{"Pages", strconv.Itoa(summary.Pages)},
			{"Succeeded", strconv.Itoa(summary.Succeeded)},
			{"Failed", strconv.Itoa(len(summary.Failures))},
			{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.RunSummary) string {
	if summary.Complete() {
		return "✅ Complete"
	}
	if summary.Succeeded == 0 {
		return "❌ Failed"
	}
	return "⚠️ Incomplete"
}

// writePageChart writes a mermaid pie chart of page outcomes by stage.
func (w *MarkdownWriter) writePageChart(md *markdown.Markdown, summary *model.RunSummary) {
	if len(summary.Failures) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Succeeded > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(summary.Succeeded))
	}

	byStage := make(map[model.PageStage]int)
	for _, f := range summary.Failures {
		byStage[f.Stage]++
	}
	for _, stage := range []model.PageStage{
		model.StageFetch,
		model.StageDerive,
		model.StageDecrypt,
		model.StageAssemble,
		model.StageWrite,
	} {
		if n := byStage[stage]; n > 0 {
			chart.LabelAndIntValue("Failed: "+string(stage), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Complete():
		md.Tip("All pages were reconstructed.")
	case summary.Succeeded == 0:
		md.Cautionf("No pages could be reconstructed. All %d page(s) failed.", summary.Pages)
	default:
		md.Warningf("%d of %d page(s) failed and were skipped in the output.",
			len(summary.Failures), summary.Pages)
	}
	md.PlainText("")
}

// writeFailures writes the per-page failure table.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Failed Pages")
	md.PlainText("")

	if len(summary.Failures) == 0 {
		md.PlainText("No failed pages.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		rows = append(rows, []string{
			strconv.Itoa(f.Page),
			string(f.Stage),
			f.Reason,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Stage", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}
