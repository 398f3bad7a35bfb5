// Package tui provides the interactive sample dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/fentz26/labtrack/internal/view"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	bannerStyle = lipgloss.NewStyle().
			Background(errorColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

const (
	modeList    = "list"
	modeDetail  = "detail"
	modeMetrics = "metrics"
)

// clockInterval is how often the window cutoff is re-evaluated.
const clockInterval = 30 * time.Second

// Source is the reconciled sample collection.
type Source interface {
	Snapshot() reconcile.Snapshot
	Subscribe(fn func(reconcile.Snapshot)) func()
	Refresh(ctx context.Context) error
}

// Mutator submits sample changes.
type Mutator interface {
	AddSample(ctx context.Context, sample models.NewSample) (string, error)
	UpdateStatus(ctx context.Context, sampleID string, status models.Status, override bool) (string, error)
	Claim(ctx context.Context, sampleID, claimedBy string) (string, error)
}

// Options configures an App.
type Options struct {
	Role      models.Role
	Samples   Source
	Mutations Mutator
	// Poller drives background refreshes while the program runs. Without
	// one, the App refreshes on start and on demand only.
	Poller *reconcile.Poller
	// User is the signed-in user, used as the default claimer.
	User   string
	Window view.Window
	Now    func() time.Time
}

// App is the dashboard model for one role.
type App struct {
	role    models.Role
	src     Source
	mut     Mutator
	poller  *reconcile.Poller
	user    string
	now     func() time.Time
	ctx     context.Context
	snap    reconcile.Snapshot
	query   view.Query
	tables  [2]*tableModel
	focus   int
	mode    string
	detail  string
	message string
	isError bool

	input       textinput.Model
	spinner     spinner.Model
	suggestions *Suggestions
	width       int
	height      int
}

// New creates a dashboard for opts.Role.
func New(opts Options) *App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	window := opts.Window
	if window == 0 {
		window = view.Window24h
	}

	ti := textinput.New()
	ti.Placeholder = "Type a command, or / to list commands"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	active, done := view.Tables(opts.Role)
	return &App{
		role:        opts.Role,
		src:         opts.Samples,
		mut:         opts.Mutations,
		poller:      opts.Poller,
		user:        opts.User,
		now:         now,
		ctx:         context.Background(),
		snap:        opts.Samples.Snapshot(),
		query:       view.Query{Window: window},
		tables:      [2]*tableModel{newTableModel(active, view.NewMemo(active, now)), newTableModel(done, view.NewMemo(done, now))},
		mode:        modeList,
		input:       ti,
		spinner:     sp,
		suggestions: NewSuggestions(opts.Role),
		width:       100,
		height:      40,
	}
}

// Run starts the program and the poller, and stops the poller before
// returning so no refresh outlives the dashboard.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := a.src.Subscribe(func(s reconcile.Snapshot) {
		p.Send(snapshotMsg{s})
	})
	defer unsubscribe()

	if a.poller != nil {
		a.poller.Start(ctx)
		defer a.poller.Stop()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.spinner.Tick, a.clockTick()}
	if a.poller == nil {
		cmds = append(cmds, a.refresh())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := a.handleKey(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 6

	case snapshotMsg:
		a.snap = msg.snap

	case commandResultMsg:
		a.message = msg.message
		a.isError = msg.err != nil
		if msg.err != nil {
			a.message = "Error: " + msg.err.Error()
		}

	case tickMsg:
		for _, t := range a.tables {
			t.memo.Invalidate()
		}
		return a, a.clockTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	a.suggestions.Update(a.input.Value())
	if a.suggestions.prefix == "@" {
		a.suggestions.SetSamples(a.sampleIDs())
	}

	return a, tea.Batch(cmds...)
}

// handleKey processes navigation keys. It reports false when the key
// should fall through to the command input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	table := a.tables[a.focus]
	inputEmpty := a.input.Value() == ""

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit, true

	case "esc":
		if a.mode != modeList {
			a.mode = modeList
			a.detail = ""
			return a, nil, true
		}
		a.input.SetValue("")
		a.suggestions.Update("")
		return a, nil, true

	case "up":
		if a.suggestions.IsVisible() {
			a.suggestions.Prev()
		} else if a.mode == modeList {
			table.up()
		}
		return a, nil, true

	case "down":
		if a.suggestions.IsVisible() {
			a.suggestions.Next()
		} else if a.mode == modeList {
			table.down(a.snap, a.query)
		}
		return a, nil, true

	case "left", "pgup":
		if a.mode == modeList && (inputEmpty || msg.String() == "pgup") {
			table.prevPage(a.query)
			return a, nil, true
		}

	case "right", "pgdown":
		if a.mode == modeList && (inputEmpty || msg.String() == "pgdown") {
			table.nextPage(a.snap, a.query)
			return a, nil, true
		}

	case "tab":
		if a.suggestions.IsVisible() {
			a.acceptSuggestion()
			return a, nil, true
		}
		if a.mode == modeList {
			a.focus = (a.focus + 1) % len(a.tables)
		}
		return a, nil, true

	case "enter":
		if a.suggestions.IsVisible() {
			a.acceptSuggestion()
			return a, nil, true
		}
		input := strings.TrimSpace(a.input.Value())
		if input != "" {
			a.input.SetValue("")
			a.suggestions.Update("")
			return a, a.executeCommand(input), true
		}
		if a.mode == modeList {
			if row, ok := table.selected(a.snap, a.query); ok {
				a.mode = modeDetail
				a.detail = row.Record.SampleID
			}
		}
		return a, nil, true
	}
	return a, nil, false
}

func (a *App) acceptSuggestion() {
	if selected := a.suggestions.Selected(); selected != nil {
		a.input.SetValue(selected.Text + " ")
		a.input.CursorEnd()
		a.suggestions.Update("")
	}
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	if a.snap.Err != nil {
		b.WriteString(a.renderBanner() + "\n")
	}

	switch a.mode {
	case modeList:
		b.WriteString(a.renderTables())
	case modeDetail:
		b.WriteString(a.renderDetail())
	case modeMetrics:
		b.WriteString(renderMetrics(a.snap.All, a.now()))
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if a.isError {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))

	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(a.width).Render(a.statusLine()))
	return b.String()
}

func (a *App) renderHeader() string {
	header := titleStyle.Render("🧪 LABTRACK " + a.role.Label())

	switch {
	case a.snap.Loading:
		header += "  " + a.spinner.View() + " loading"
	case a.snap.Online():
		header += "  " + onlineStyle.Render("● LIVE")
	default:
		header += "  " + offlineStyle.Render("○ OFFLINE")
	}

	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[window %s]", a.query.Window))
	if a.query.Search != "" {
		header += "  " + lipgloss.NewStyle().Foreground(warningColor).Render(fmt.Sprintf("[search %q]", a.query.Search))
	}
	if a.user != "" {
		header += "  " + lipgloss.NewStyle().Foreground(successColor).Render("● "+a.user)
	}
	return header
}

func (a *App) renderBanner() string {
	text := "⚠ Cannot reach the sample service: " + a.snap.Err.Error()
	if !a.snap.SyncedAt.IsZero() {
		text += fmt.Sprintf(". Showing data from %s.", a.snap.SyncedAt.Local().Format("15:04:05"))
	}
	return bannerStyle.Width(a.width).Render(text)
}

func (a *App) renderTables() string {
	var b strings.Builder
	for i, t := range a.tables {
		p := t.page(a.snap, a.query)
		b.WriteString(t.render(a.role, p, i == a.focus, a.width))
		if i < len(a.tables)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a *App) statusLine() string {
	switch a.mode {
	case modeDetail:
		if a.role == models.RoleLab {
			return " status <Status> [force] | Esc:back | Ctrl+C:quit"
		}
		return " claim [name] | Esc:back | Ctrl+C:quit"
	case modeMetrics:
		return " Esc:back | Ctrl+C:quit"
	}

	synced := "never"
	if !a.snap.SyncedAt.IsZero() {
		synced = a.snap.SyncedAt.Local().Format("15:04:05")
	}
	return fmt.Sprintf(" Samples: %d | synced %s | ↑↓:nav | ←→:page | Tab:table | Enter:detail | /:commands | Ctrl+C:quit",
		len(a.snap.All), synced)
}

func (a *App) sampleIDs() []string {
	ids := make([]string, 0, len(a.snap.All))
	for _, rec := range a.snap.All {
		ids = append(ids, rec.SampleID)
	}
	return ids
}

// refresh asks for an out-of-band reconcile.
func (a *App) refresh() tea.Cmd {
	if a.poller != nil {
		a.poller.Trigger()
		return nil
	}
	src := a.src
	ctx := a.ctx
	return func() tea.Msg {
		src.Refresh(ctx)
		return snapshotMsg{src.Snapshot()}
	}
}

func (a *App) clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
