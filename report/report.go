// Package report renders benchmark results for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"storebench/benchmark"
	"storebench/config"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// DisplayResults writes a summary table of result to w.
func DisplayResults(w io.Writer, result benchmark.RunResult) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s results", capitalize(string(result.Mode)))))

	t := table.New().
		Headers("Metric", "Value").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	t.Row("Run ID", result.RunID)
	t.Row("Backend", result.Backend)
	t.Row("Remote path", result.RemotePath)
	t.Row("Total size", FormatBytes(result.TotalBytes))
	t.Row("Transferred", FormatBytes(result.BytesTransferred))
	t.Row("Segments", strconv.Itoa(result.Segments))
	t.Row("Succeeded", strconv.Itoa(result.Succeeded))
	if result.Failed > 0 || result.Canceled > 0 {
		t.Row("Failed", strconv.Itoa(result.Failed))
		t.Row("Canceled", strconv.Itoa(result.Canceled))
	}
	if result.Throttled > 0 {
		t.Row("Throttled", strconv.Itoa(result.Throttled))
	}
	t.Row("Duration", result.Elapsed.Round(time.Millisecond).String())
	t.Row("Throughput", fmt.Sprintf("%.3f MB/s", result.SpeedMBps))
	fmt.Fprintln(w, t.String())

	fmt.Fprintln(w, StatusLine(result))
}

// StatusLine is the one-line verdict for result.
func StatusLine(result benchmark.RunResult) string {
	switch {
	case result.Failed > 0 || result.Canceled > 0:
		return errorStyle.Render(fmt.Sprintf("%s %s (partial: %d of %d segments completed)", symbols["fail"], result.Status, result.Succeeded, result.Segments))
	case result.Throttled > 0:
		return warningStyle.Render(fmt.Sprintf("%s %s (throttled)", symbols["warning"], result.Status))
	default:
		return successStyle.Render(symbols["pass"] + " " + result.Status)
	}
}

// FormatBytes renders n in MB with three decimals, the unit used for speeds.
func FormatBytes(n uint64) string {
	return fmt.Sprintf("%.3f MB", float64(n)/config.MB)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
