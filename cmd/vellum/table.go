package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"vellum/internal/review"
)

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	if stdoutIsTerminal() {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	return tw
}

func renderTable(headers table.Row, rows []table.Row, rightAligned ...int) string {
	tw := newTableWriter()
	tw.AppendHeader(headers)
	tw.AppendRows(rows)

	var configs []table.ColumnConfig
	for _, col := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      col,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	if len(configs) > 0 {
		tw.SetColumnConfigs(configs)
	}
	return tw.Render()
}

func renderSummaries(summaries []*review.RunSummary) string {
	rows := make([]table.Row, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, table.Row{
			s.JournalCode,
			s.Discovered,
			s.Succeeded,
			s.Partial,
			s.Failed,
			fmt.Sprintf("%.0f%%", s.EmailResolutionRate*100),
			s.FinishedAt.Sub(s.StartedAt).Round(time.Second),
		})
	}
	return renderTable(
		table.Row{"Journal", "Discovered", "Succeeded", "Partial", "Failed", "Emails", "Duration"},
		rows, 2, 3, 4, 5, 6, 7,
	)
}
