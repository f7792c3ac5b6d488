// Package tui provides the BubbleTea-based terminal renderer for toasts.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/display"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/theme"
)

// frameInterval is how often the progress bars are redrawn.
const frameInterval = 50 * time.Millisecond

// Step is one scripted toast, raised After the previous step.
type Step struct {
	After   time.Duration
	Request model.Request
}

// sampleToasts are raised by the per-kind keys.
var sampleToasts = map[model.Kind]model.Request{
	model.KindSuccess: {Kind: model.KindSuccess, Title: "Saved", Message: "Your changes have been saved."},
	model.KindError:   {Kind: model.KindError, Title: "Upload failed", Message: "The document could not be uploaded. Check your connection and try again."},
	model.KindWarning: {Kind: model.KindWarning, Title: "Incomplete form", Message: "Some required fields are still empty."},
	model.KindInfo:    {Kind: model.KindInfo, Title: "Heads up", Message: "A new version is available."},
}

// Model is the main TUI model.
type Model struct {
	cfg     *config.Config
	manager *display.Manager
	theme   *theme.Theme

	// Components
	help help.Model
	bar  progress.Model
	keys KeyMap

	// State
	toasts   []display.ActiveToast
	width    int
	height   int
	showHelp bool

	// Scripted toasts (demo mode)
	script []Step

	events <-chan display.Event
}

// New creates a new TUI model drawing the toasts held by manager.
func New(cfg *config.Config, manager *display.Manager, script []Step) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return Model{
		cfg:     cfg,
		manager: manager,
		theme:   theme.New(cfg),
		help:    help.New(),
		bar:     newBar(cfg.Display.Width),
		keys:    DefaultKeyMap(),
		script:  script,
		events:  manager.Subscribe(),
	}
}

func newBar(width int) progress.Model {
	return progress.New(
		progress.WithSolidFill("#2196F3"),
		progress.WithoutPercentage(),
		progress.WithWidth(max(width-4, 1)),
	)
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent, tick()}
	if len(m.script) > 0 {
		cmds = append(cmds, scriptCmd(m.script, 0))
	}
	return tea.Batch(cmds...)
}

// eventMsg carries a change from the display manager.
type eventMsg display.Event

// eventsClosedMsg is sent once the manager closes the subscription.
type eventsClosedMsg struct{}

// frameMsg triggers a redraw of the progress bars.
type frameMsg time.Time

// scriptMsg raises step index of the script.
type scriptMsg int

// ConfigReloadedMsg tells the model to restyle with a new configuration.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// waitForEvent blocks until the manager reports a change.
func (m Model) waitForEvent() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return eventsClosedMsg{}
	}
	return eventMsg(ev)
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func scriptCmd(script []Step, index int) tea.Cmd {
	return tea.Tick(script[index].After, func(time.Time) tea.Msg {
		return scriptMsg(index)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.toasts = m.manager.Active()
		return m, m.waitForEvent

	case eventsClosedMsg:
		m.toasts = nil
		return m, nil

	case frameMsg:
		m.toasts = m.manager.Active()
		return m, tick()

	case scriptMsg:
		i := int(msg)
		if i < 0 || i >= len(m.script) {
			return m, nil
		}
		m.manager.Show(m.script[i].Request)
		m.toasts = m.manager.Active()
		if i+1 < len(m.script) {
			return m, scriptCmd(m.script, i+1)
		}
		return m, nil

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.cfg = msg.Config
			m.theme = theme.New(msg.Config)
			m.bar = newBar(msg.Config.Display.Width)
		}
		return m, nil
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Success):
		m.manager.Show(sampleToasts[model.KindSuccess])
	case key.Matches(msg, m.keys.Error):
		m.manager.Show(sampleToasts[model.KindError])
	case key.Matches(msg, m.keys.Warning):
		m.manager.Show(sampleToasts[model.KindWarning])
	case key.Matches(msg, m.keys.Info):
		m.manager.Show(sampleToasts[model.KindInfo])

	case key.Matches(msg, m.keys.DismissNewest):
		if n := len(m.toasts); n > 0 {
			m.manager.Dismiss(m.toasts[n-1].ID)
		}
	case key.Matches(msg, m.keys.DismissOldest):
		if len(m.toasts) > 0 {
			m.manager.Dismiss(m.toasts[0].ID)
		}
	case key.Matches(msg, m.keys.CloseAll):
		m.manager.CloseAll()
	}

	m.toasts = m.manager.Active()
	return m, nil
}

// View renders the toast stack and the key help.
func (m Model) View() string {
	now := m.manager.Now()

	gap := strings.Repeat("\n", m.cfg.Display.Gap)
	rendered := make([]string, 0, len(m.toasts))
	for _, at := range m.toasts {
		rendered = append(rendered, m.renderToast(at, now))
	}
	stack := strings.Join(rendered, "\n"+gap)

	footer := m.help.View(m.keys)

	if m.height <= 0 {
		if stack == "" {
			return footer
		}
		return stack + "\n" + footer
	}

	// Pin the stack to the configured edge and the help to the last line
	body := m.height - lipgloss.Height(footer)
	if config.Position(m.cfg.Display.Position) == config.PositionBottom {
		return lipgloss.PlaceVertical(body, lipgloss.Bottom, stack) + "\n" + footer
	}
	return lipgloss.PlaceVertical(body, lipgloss.Top, stack) + "\n" + footer
}

// renderToast draws one toast box.
func (m Model) renderToast(at display.ActiveToast, now time.Time) string {
	style := m.theme.For(at.Kind)
	inner := max(m.theme.Width()-4, 1)

	icon := style.Icon.Render(style.IconText)
	closeMark := style.Close.Render("×")
	titleWidth := max(inner-lipgloss.Width(icon)-lipgloss.Width(closeMark)-1, 1)

	title := at.Title
	if lipgloss.Width(title) > titleWidth {
		title = truncate(title, titleWidth)
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		icon,
		style.Title.Width(titleWidth).Render(title),
		" ",
		closeMark,
	)

	lines := []string{header}
	if at.Message != "" {
		lines = append(lines, style.Message.Width(inner).Render(at.MessageTruncated(inner*2)))
	}
	if m.cfg.Display.ShowAge {
		lines = append(lines, style.Meta.Render(fmt.Sprintf("%s · %s", at.Kind, humanize.Time(at.CreatedAt))))
	}
	if m.cfg.Display.ShowProgress {
		bar := m.bar
		bar.FullColor = string(style.Bar)
		lines = append(lines, bar.ViewAs(at.Progress(now)))
	}

	box := style.Box
	// Entrance and exit are drawn dimmed
	if at.State == display.StateEntering || at.State == display.StateExiting {
		box = box.Faint(true)
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Close stops the model listening to the manager. It is safe to call more
// than once.
func (m Model) Close() {
	m.manager.Unsubscribe(m.events)
}

// truncate cuts s to width runes, ending with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// NewProgram builds the tea.Program drawing the Manager carried by ctx.
// The program stops when ctx is cancelled.
func NewProgram(ctx context.Context, cfg *config.Config, script []Step, opts ...tea.ProgramOption) *tea.Program {
	manager := display.FromContext(ctx)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	return tea.NewProgram(New(cfg, manager, script), opts...)
}
