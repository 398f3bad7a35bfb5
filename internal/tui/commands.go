package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/labtrack/internal/export"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/view"
)

// executeCommand runs one command bar line. View changes apply at once;
// mutations run as a tea.Cmd and report back with commandResultMsg.
func (a *App) executeCommand(input string) tea.Cmd {
	input = strings.TrimPrefix(input, "/")
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch cmd {
	case "search":
		a.query.Search = rest
		a.mode = modeList
		if rest == "" {
			a.say("Search cleared")
		} else {
			a.say(fmt.Sprintf("Searching for %q", rest))
		}
		return nil

	case "window":
		if len(args) != 1 {
			a.fail(fmt.Errorf("usage: window 1h|6h|12h|24h"))
			return nil
		}
		w, err := view.ParseWindow(args[0])
		if err != nil {
			a.fail(err)
			return nil
		}
		a.query.Window = w
		a.say(fmt.Sprintf("Showing the last %s", w))
		return nil

	case "status":
		return a.statusCommand(args)

	case "claim":
		return a.claimCommand(rest)

	case "add":
		return a.addCommand(rest)

	case "export":
		return a.exportCommand(rest)

	case "refresh", "r":
		a.say("Refreshing...")
		return a.refresh()

	case "metrics":
		a.mode = modeMetrics
		return nil

	case "q", "quit", "exit":
		return tea.Quit

	default:
		a.fail(fmt.Errorf("unknown command %q (type / to list commands)", cmd))
		return nil
	}
}

func (a *App) statusCommand(args []string) tea.Cmd {
	if a.role != models.RoleLab {
		a.fail(fmt.Errorf("status changes are made by the lab"))
		return nil
	}
	override := false
	if n := len(args); n > 0 && strings.EqualFold(args[n-1], "force") {
		override = true
		args = args[:n-1]
	}
	if len(args) == 0 {
		a.fail(fmt.Errorf("usage: status <%s> [force]", joinStatuses()))
		return nil
	}
	status, err := models.ParseStatus(strings.Join(args, " "))
	if err != nil {
		a.fail(err)
		return nil
	}
	rec, ok := a.target()
	if !ok {
		a.fail(fmt.Errorf("no sample selected"))
		return nil
	}

	ctx, mut, id := a.ctx, a.mut, rec.SampleID
	return func() tea.Msg {
		msg, err := mut.UpdateStatus(ctx, id, status, override)
		if err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{message: successText(msg, fmt.Sprintf("✓ %s is now %s", id, status))}
	}
}

func (a *App) claimCommand(name string) tea.Cmd {
	if a.role != models.RoleED {
		a.fail(fmt.Errorf("results are claimed from the ED dashboard"))
		return nil
	}
	if name == "" {
		name = a.user
	}
	if name == "" {
		a.fail(fmt.Errorf("usage: claim <your name>"))
		return nil
	}
	rec, ok := a.target()
	if !ok {
		a.fail(fmt.Errorf("no sample selected"))
		return nil
	}

	ctx, mut, id := a.ctx, a.mut, rec.SampleID
	return func() tea.Msg {
		msg, err := mut.Claim(ctx, id, name)
		if err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{message: successText(msg, fmt.Sprintf("✓ %s claimed by %s", id, name))}
	}
}

func (a *App) addCommand(rest string) tea.Cmd {
	if a.role != models.RoleLab {
		a.fail(fmt.Errorf("samples are added from the lab dashboard"))
		return nil
	}
	fields := strings.Split(rest, "|")
	if len(fields) != 4 {
		a.fail(fmt.Errorf("usage: add <name> | <patient ID> | <%s> | <%s>",
			strings.Join(models.TestTypes, "/"), strings.Join(models.Sources, "/")))
		return nil
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	sample := models.NewSampleAt(fields[0], fields[1], fields[2], fields[3], a.now())
	if err := sample.Validate(); err != nil {
		a.fail(err)
		return nil
	}

	ctx, mut := a.ctx, a.mut
	return func() tea.Msg {
		msg, err := mut.AddSample(ctx, sample)
		if err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{message: successText(msg, "✓ Sample added for "+sample.PatientName)}
	}
}

func (a *App) exportCommand(path string) tea.Cmd {
	if path == "" {
		a.fail(fmt.Errorf("usage: export <file.csv|file.xlsx>"))
		return nil
	}
	t := a.tables[a.focus]
	samples := view.Projected(t.rows(a.snap, a.query))

	return func() tea.Msg {
		if err := export.WriteFile(path, samples); err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{message: fmt.Sprintf("✓ Exported %d samples to %s", len(samples), path)}
	}
}

// target is the record a mutation applies to: the open detail, otherwise
// the selected row of the focused table. It is always the unmasked record.
func (a *App) target() (models.SampleRecord, bool) {
	if a.mode == modeDetail && a.detail != "" {
		return a.lookup(a.detail)
	}
	row, ok := a.tables[a.focus].selected(a.snap, a.query)
	return row.Record, ok
}

func (a *App) lookup(id string) (models.SampleRecord, bool) {
	for _, rec := range a.snap.All {
		if rec.SampleID == id {
			return rec, true
		}
	}
	return models.SampleRecord{}, false
}

func (a *App) say(msg string) {
	a.message = msg
	a.isError = false
}

func (a *App) fail(err error) {
	a.message = "Error: " + err.Error()
	a.isError = true
}

func successText(server, fallback string) string {
	if server != "" {
		return "✓ " + server
	}
	return fallback
}

func joinStatuses() string {
	names := make([]string, len(models.Statuses))
	for i, st := range models.Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, "|")
}
