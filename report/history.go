package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"storebench/history"
)

// DisplayHistory writes recorded runs as a table, newest first. With
// markdown set the table uses a Markdown border.
func DisplayHistory(w io.Writer, entries []history.Entry, markdown bool) {
	if len(entries) == 0 {
		PrintInfo(w, "no recorded runs")
		return
	}

	t := table.New().
		Headers("Started", "Run ID", "Mode", "Backend", "Size", "Segments", "Failed", "Speed", "Outcome").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	if markdown {
		t = t.Border(lipgloss.MarkdownBorder())
	}

	for _, e := range entries {
		outcome := "ok"
		switch {
		case e.Error != "" && e.Partial:
			outcome = "partial"
		case e.Error != "":
			outcome = "failed"
		}
		t.Row(
			e.Started.Local().Format(time.DateTime),
			e.RunID,
			e.Mode,
			e.Backend,
			FormatBytes(e.TotalBytes),
			strconv.Itoa(e.Segments),
			strconv.Itoa(e.Failed+e.Canceled),
			fmt.Sprintf("%.3f MB/s", e.SpeedMBps),
			outcome,
		)
	}
	fmt.Fprintln(w, t.String())
}
