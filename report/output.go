package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

var symbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"warning": "!",
	"info":    "ℹ",
	"arrow":   "→",
}

func PrintSuccess(w io.Writer, text string) {
	fmt.Fprintln(w, successStyle.Render(symbols["pass"]+" "+text))
}

func PrintError(w io.Writer, text string) {
	fmt.Fprintln(w, errorStyle.Render(symbols["fail"]+" "+text))
}

func PrintWarning(w io.Writer, text string) {
	fmt.Fprintln(w, warningStyle.Render(symbols["warning"]+" "+text))
}

func PrintInfo(w io.Writer, text string) {
	fmt.Fprintln(w, infoStyle.Render(symbols["info"]+" "+text))
}

func PrintHeader(w io.Writer, text string) {
	fmt.Fprintln(w, headerStyle.Render(text))
}

func PrintDetail(w io.Writer, text string) {
	fmt.Fprintln(w, detailStyle.Render(symbols["arrow"]+" "+text))
}
