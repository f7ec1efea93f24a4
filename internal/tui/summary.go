package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"imgsweep/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
	Warn  bool
}

// SweepRows turns a pipeline summary into table rows.
func SweepRows(s processor.Summary) []SummaryRow {
	return []SummaryRow{
		{Label: "Images found", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Exact duplicates removed", Value: fmt.Sprintf("%d", s.ExactDuplicates)},
		{Label: "Visual duplicates removed", Value: fmt.Sprintf("%d", s.NearDuplicates)},
		{Label: "Unreadable skipped", Value: fmt.Sprintf("%d", s.Skipped), Warn: s.Skipped > 0},
		{Label: "Survivors", Value: fmt.Sprintf("%d", s.Unique)},
		{Label: "Resized", Value: fmt.Sprintf("%d", s.Resized)},
		{Label: "Space saved (bytes)", Value: fmt.Sprintf("%d", s.BytesSaved)},
		{Label: "Metadata tags dropped", Value: fmt.Sprintf("%d", s.MetadataTags)},
		{Label: "Errors", Value: fmt.Sprintf("%d", s.Errors), Warn: s.Errors > 0},
	}
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		style := valueStyle
		if row.Warn {
			style = warnStyle
		}
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), style.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
)
