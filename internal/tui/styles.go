// Package tui renders console output: styled summaries and a live progress
// view for long integrations.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("238"))

	Label = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(18)
	Value = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

func Title(s string) string { return Header.Render(s) }

func OK(s string) string   { return green.Render(s) }
func Warn(s string) string { return yellow.Render(s) }
func Err(s string) string  { return red.Render(s) }

// KV renders one aligned "label value" line.
func KV(label string, value any) string {
	return Label.Render(label) + Value.Render(fmt.Sprint(value))
}

// Vector renders a state or tendency vector as indexed rows.
func Vector(name string, v []float64) string {
	var b strings.Builder
	for i, x := range v {
		b.WriteString(Label.Render(fmt.Sprintf("%s[%d]", name, i+1)))
		b.WriteString(white.Render(fmt.Sprintf("% .6e", x)))
		b.WriteByte('\n')
	}
	return b.String()
}

func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return cyan.Render(strings.Repeat("█", filled)) + dim.Render(strings.Repeat("░", width-filled))
}

func Separator(width int) string {
	return dim.Render(strings.Repeat("─", width))
}
