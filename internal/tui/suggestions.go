package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/labtrack/internal/models"
)

// Suggestions provides autocomplete for commands
type Suggestions struct {
	commands     []SuggestionItem
	items        []SuggestionItem
	filtered     []SuggestionItem
	selectedIdx  int
	visible      bool
	prefix       string // "/" or "@"
	currentInput string
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
	Type        string // "command", "sample"
}

var sharedCommands = []SuggestionItem{
	{Text: "search", Description: "Filter both tables (empty clears)", Type: "command"},
	{Text: "window", Description: "Time window: 1h, 6h, 12h, 24h", Type: "command"},
	{Text: "export", Description: "Save the focused table as .csv or .xlsx", Type: "command"},
	{Text: "refresh", Description: "Fetch samples now", Type: "command"},
	{Text: "metrics", Description: "Status chart and turnaround times", Type: "command"},
	{Text: "quit", Description: "Leave the dashboard", Type: "command"},
}

var labCommands = []SuggestionItem{
	{Text: "add", Description: "add <name> | <patient ID> | <test> | <source>", Type: "command"},
	{Text: "status", Description: "Set the selected sample's status [force]", Type: "command"},
}

var edCommands = []SuggestionItem{
	{Text: "claim", Description: "Claim the selected result [name]", Type: "command"},
}

// NewSuggestions creates a suggestions handler with the role's commands.
func NewSuggestions(role models.Role) *Suggestions {
	var cmds []SuggestionItem
	if role == models.RoleLab {
		cmds = append(cmds, labCommands...)
	} else {
		cmds = append(cmds, edCommands...)
	}
	cmds = append(cmds, sharedCommands...)
	return &Suggestions{
		commands: cmds,
		items:    cmds,
	}
}

// Update updates suggestions based on current input
func (s *Suggestions) Update(input string) {
	s.currentInput = input
	if input == "" {
		s.visible = false
		s.filtered = nil
		s.prefix = ""
		return
	}

	switch input[0] {
	case '/':
		s.prefix = "/"
		s.items = s.commands
		s.visible = true
		s.filter(strings.ToLower(strings.TrimPrefix(input, "/")))
	case '@':
		// Sample IDs are filled in by SetSamples.
		if s.prefix != "@" {
			s.items = nil
		}
		s.prefix = "@"
		s.visible = true
		s.filter(strings.ToLower(strings.TrimPrefix(input, "@")))
	default:
		s.visible = false
		s.filtered = nil
		s.prefix = ""
	}
}

// SetSamples updates the sample ID suggestions
func (s *Suggestions) SetSamples(ids []string) {
	if s.prefix != "@" {
		return
	}
	s.items = make([]SuggestionItem, len(ids))
	for i, id := range ids {
		s.items[i] = SuggestionItem{
			Text:        id,
			Description: "Search for this sample",
			Type:        "sample",
		}
	}
	s.filter(strings.ToLower(strings.TrimPrefix(s.currentInput, "@")))
}

func (s *Suggestions) filter(query string) {
	if query == "" {
		s.filtered = s.items
		s.selectedIdx = 0
		return
	}

	s.filtered = []SuggestionItem{}
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Text), query) {
			s.filtered = append(s.filtered, item)
		}
	}
	s.selectedIdx = 0
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion. Sample suggestions
// expand to a search for that sample.
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	item := s.filtered[s.selectedIdx]
	if item.Type == "sample" {
		item.Text = "search " + item.Text
	}
	return &item
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	suggestionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(width - 4)

	itemStyle := lipgloss.NewStyle().
		Foreground(fgColor)

	descStyle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true)

	header := "💡 Commands"
	if s.prefix == "@" {
		header = "🔗 Samples"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(header))
	b.WriteString("\n")

	// Show max 5 suggestions
	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			more := len(s.filtered) - maxVisible
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", more)))
			break
		}

		var line string
		if i == s.selectedIdx {
			line = selectedStyle.Render("▶ " + item.Text)
			if item.Description != "" {
				line += " " + selectedStyle.Render(item.Description)
			}
		} else {
			line = itemStyle.Render("  " + item.Text)
			if item.Description != "" {
				line += " " + descStyle.Render(item.Description)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return suggestionStyle.Render(b.String())
}
