package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/view"
)

const barWidth = 40

// renderMetrics draws the status histogram and today's average turnaround
// per test type.
func renderMetrics(records []models.SampleRecord, now time.Time) string {
	var b strings.Builder

	b.WriteString("\n  📊 Samples by status\n")
	b.WriteString("  " + strings.Repeat("─", 60) + "\n")

	hist := view.Histogram(records)
	maxCount := 0
	for _, c := range hist {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	for _, c := range hist {
		n := 0
		if maxCount > 0 {
			n = c.Count * barWidth / maxCount
		}
		if c.Count > 0 && n == 0 {
			n = 1
		}
		bar := statusStyle(c.Status).Render(strings.Repeat("█", n))
		b.WriteString(fmt.Sprintf("  %-18s %s %d\n", c.Status, bar, c.Count))
	}

	b.WriteString("\n  ⏱  Average turnaround today\n")
	b.WriteString("  " + strings.Repeat("─", 60) + "\n")

	avgs := view.AverageTAT(records, now)
	if len(avgs) == 0 {
		b.WriteString("  " + emptyStyle.Render("No results completed today.") + "\n")
		return b.String()
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(cyanColor)
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		header.Render(fmt.Sprintf("%-10s", "TEST")),
		header.Render(fmt.Sprintf("%10s", "AVG (min)")),
		header.Render(fmt.Sprintf("%8s", "SAMPLES")),
	))
	for _, avg := range avgs {
		b.WriteString(fmt.Sprintf("  %-10s  %10.1f  %8d\n", avg.TestType, avg.Minutes, avg.Count))
	}
	return b.String()
}
