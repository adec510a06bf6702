package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// issueTableHeaders are the columns of the list command's catalog table,
// matching the order issueRow produces.
var issueTableHeaders = table.Row{"ID", "Title", "Vol", "No", "Downloaded"}

// renderIssueTable renders catalog rows as a rounded terminal table.
// Volume and issue numbers are right-aligned so they line up.
func renderIssueTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(issueTableHeaders)

	for _, row := range rows {
		r := make(table.Row, len(issueTableHeaders))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
