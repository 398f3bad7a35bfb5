package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/labtrack/internal/models"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginTop(1)
)

func (a *App) renderDetail() string {
	rec, ok := a.lookup(a.detail)
	if !ok {
		return "\n  Sample " + a.detail + " is no longer in the collection.\n"
	}
	table := a.tables[0]
	if a.role.IsDone(rec) {
		table = a.tables[1]
	}
	row := table.def.Project(rec)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n  📋 %s\n\n", lipgloss.NewStyle().Bold(true).Render(rec.SampleID)))
	b.WriteString(renderField("Patient", row.PatientName))
	b.WriteString(renderField("Patient ID", row.PatientID))
	b.WriteString(renderField("Test", rec.TestType))
	b.WriteString(renderField("Source", rec.Source))
	b.WriteString(renderField("Status", formatStatus(rec.Status)))
	b.WriteString(renderField("Updated", formatClock(rec.Timestamp)))
	if rec.Claimed() {
		b.WriteString(renderField("Claimed by", rec.Claimer()))
	}

	b.WriteString(sectionStyle.Render("  Progress") + "\n")
	for _, st := range models.Statuses {
		mark := "○"
		style := emptyStyle
		if rec.Status.Rank() >= st.Rank() {
			mark = "●"
			style = statusStyle(st)
		}
		b.WriteString("    " + style.Render(mark+" "+string(st)) + "\n")
	}

	if rec.TATStart != nil || rec.TATEnd != nil {
		b.WriteString(sectionStyle.Render("  Turnaround") + "\n")
		if rec.TATStart != nil {
			b.WriteString(renderField("Started", formatClock(*rec.TATStart)))
		}
		if rec.TATEnd != nil {
			b.WriteString(renderField("Finished", formatClock(*rec.TATEnd)))
		}
		if minutes, ok := rec.Turnaround(); ok {
			b.WriteString(renderField("TAT", fmt.Sprintf("%.0f min", minutes)))
		}
	}
	return b.String()
}

func renderField(label, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label+":")), valueStyle.Render(value))
}

func statusStyle(status models.Status) lipgloss.Style {
	switch status {
	case models.StatusReceived:
		return lipgloss.NewStyle().Foreground(warningColor)
	case models.StatusInProgress:
		return lipgloss.NewStyle().Foreground(secondaryColor)
	case models.StatusAnalysisComplete:
		return lipgloss.NewStyle().Foreground(cyanColor)
	case models.StatusResultsAvailable:
		return lipgloss.NewStyle().Foreground(successColor)
	default:
		return lipgloss.NewStyle().Foreground(mutedColor)
	}
}

// rowStyle colors an unselected table row by its status.
func rowStyle(status models.Status) lipgloss.Style {
	return statusStyle(status)
}

func formatStatus(status models.Status) string {
	icon := "?"
	switch status {
	case models.StatusReceived:
		icon = "○"
	case models.StatusInProgress:
		icon = "◐"
	case models.StatusAnalysisComplete:
		icon = "◑"
	case models.StatusResultsAvailable:
		icon = "●"
	}
	return statusStyle(status).Render(icon + " " + string(status))
}
