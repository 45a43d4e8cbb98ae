// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/config"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is sent on every refresh tick.
type tickMsg time.Time

// statusMsg carries a status snapshot fetched asynchronously.
type statusMsg struct {
	status *domain.Status
}

// actionDoneMsg reports that a session action returned.
type actionDoneMsg struct {
	err error
}

// editField is the setting currently being edited from the menu.
type editField int

const (
	editNone editField = iota
	editFrom
	editTo
	editPIN
)

// Model represents the TUI state. Session actions run as commands so the
// bubbletea loop never waits on the block session.
type Model struct {
	ctx     context.Context
	actions ports.SessionActions
	clock   clock.Clock
	theme   config.ThemeConfig

	status    *domain.Status
	surface   *ports.SurfaceSpec
	surfaceID ports.SurfaceHandle
	hidden    bool
	prompting bool
	pinInput  textinput.Model

	editing   editField
	editInput textinput.Model

	notice      string
	noticeUntil time.Time

	progress progress.Model
	width    int
	height   int
}

// NewModel creates a new TUI model.
func NewModel(ctx context.Context, actions ports.SessionActions, clk clock.Clock, theme *config.ThemeConfig) Model {
	resolved := resolveTheme(theme)

	pin := textinput.New()
	pin.Placeholder = "PIN"
	pin.EchoMode = textinput.EchoPassword
	pin.EchoCharacter = '•'
	pin.CharLimit = 12
	pin.Width = 14

	edit := textinput.New()
	edit.CharLimit = 12
	edit.Width = 14

	return Model{
		ctx:       ctx,
		actions:   actions,
		clock:     clk,
		theme:     resolved,
		pinInput:  pin,
		editInput: edit,
		progress:  progress.New(progress.WithGradient(resolved.GradientStart, resolved.GradientEnd)),
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.fetchStatusCmd())
}

func (m Model) fetchStatusCmd() tea.Cmd {
	return func() tea.Msg {
		st, err := m.actions.Snapshot(m.ctx)
		if err != nil {
			return nil
		}
		return statusMsg{status: st}
	}
}

// actionCmd runs fn against the session off the bubbletea goroutine.
func (m Model) actionCmd(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn(m.ctx)}
	}
}

func (m Model) menu() domain.MenuState {
	if m.status == nil {
		return domain.MenuState{}
	}
	return m.status.Menu
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 8
		return m, nil

	case tickMsg:
		if m.notice != "" && !m.clock.Now().Before(m.noticeUntil) {
			m.notice = ""
		}
		return m, tea.Batch(tickCmd(), m.fetchStatusCmd())

	case statusMsg:
		m.status = msg.status
		return m, nil

	case actionDoneMsg:
		return m, m.fetchStatusCmd()

	case surfaceMsg:
		spec := msg.spec
		if msg.id != m.surfaceID {
			m.editing = editNone
		}
		m.surface = &spec
		m.surfaceID = msg.id
		if msg.reveal {
			m.hidden = false
			m.prompting = false
		}
		return m, nil

	case hideMsg:
		if msg.id == m.surfaceID {
			m.hidden = true
		}
		return m, nil

	case dismissMsg:
		if msg.id == m.surfaceID {
			m.surface = nil
			m.surfaceID = 0
			m.hidden = false
			m.prompting = false
			m.pinInput.Blur()
		}
		return m, m.fetchStatusCmd()

	case promptMsg:
		m.prompting = true
		m.pinInput.Reset()
		m.pinInput.Focus()
		return m, m.pinInput.Cursor.BlinkCmd()

	case noticeMsg:
		m.notice = msg.text
		m.noticeUntil = m.clock.Now().Add(msg.timeout)
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.prompting:
			return m.updatePrompt(msg)
		case m.editing != editNone:
			return m.updateEdit(msg)
		case m.surface != nil:
			return m.updateBlocked(msg)
		default:
			return m.updateMenu(msg)
		}
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		pin := m.pinInput.Value()
		m.prompting = false
		m.pinInput.Blur()
		return m, m.actionCmd(func(ctx context.Context) error {
			return m.actions.SubmitBypass(ctx, pin)
		})
	case tea.KeyEsc:
		m.prompting = false
		m.pinInput.Blur()
		return m, m.actionCmd(m.actions.CancelBypass)
	}
	var cmd tea.Cmd
	m.pinInput, cmd = m.pinInput.Update(msg)
	return m, cmd
}

// updateBlocked handles keys while a block is in force, whether or not the
// screen is showing. The screen cannot be dismissed, so quit keys only
// bring up a notice.
func (m Model) updateBlocked(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.notice = domain.MsgBlockActive
		m.noticeUntil = m.clock.Now().Add(domain.NotifyTimeout)
	case "b":
		return m, m.actionCmd(m.actions.RequestBypass)
	case "p":
		if m.menu().PINSetter {
			return m.startEdit(editPIN, "")
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu := m.menu()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "e":
		if menu.EnabledToggle && m.status != nil {
			enabled := !m.status.Enabled
			return m, m.actionCmd(func(ctx context.Context) error {
				return m.actions.SetEnabled(ctx, enabled)
			})
		}
	case "f":
		if menu.FromTime && m.status != nil {
			return m.startEdit(editFrom, m.status.From.String())
		}
	case "t":
		if menu.ToTime && m.status != nil {
			return m.startEdit(editTo, m.status.To.String())
		}
	case "p":
		if menu.PINSetter {
			return m.startEdit(editPIN, "")
		}
	case "x":
		if menu.PINClear {
			return m, m.actionCmd(m.actions.ClearBypassPIN)
		}
	}
	return m, nil
}

func (m Model) startEdit(field editField, value string) (tea.Model, tea.Cmd) {
	m.editing = field
	m.editInput.Reset()
	m.editInput.EchoMode = textinput.EchoNormal
	m.editInput.Placeholder = "HH:MM"
	if field == editPIN {
		m.editInput.EchoMode = textinput.EchoPassword
		m.editInput.EchoCharacter = '•'
		m.editInput.Placeholder = fmt.Sprintf("%d+ digits", domain.MinPINLength)
	}
	m.editInput.SetValue(value)
	m.editInput.Focus()
	return m, m.editInput.Cursor.BlinkCmd()
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = editNone
		m.editInput.Blur()
		return m, nil
	case tea.KeyEnter:
		field, value := m.editing, m.editInput.Value()
		m.editing = editNone
		m.editInput.Blur()
		return m.applyEdit(field, value)
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Model) applyEdit(field editField, value string) (tea.Model, tea.Cmd) {
	if field == editPIN {
		return m, m.actionCmd(func(ctx context.Context) error {
			return m.actions.SetBypassPIN(ctx, value)
		})
	}

	t, err := domain.ParseTimeOfDay(value)
	if err != nil {
		m.notice = "Invalid time, use HH:MM"
		m.noticeUntil = m.clock.Now().Add(domain.NotifyTimeout)
		return m, nil
	}
	if field == editFrom {
		return m, m.actionCmd(func(ctx context.Context) error {
			return m.actions.SetFromTime(ctx, t)
		})
	}
	return m, m.actionCmd(func(ctx context.Context) error {
		return m.actions.SetToTime(ctx, t)
	})
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	sections := []string{titleStyle.Render(m.theme.IconApp + " focusgate")}

	switch {
	case m.prompting:
		sections = m.viewPrompt(sections)
	case m.surface != nil && m.hidden:
		sections = append(sections, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.ColorBlock)).
			Render(m.theme.IconLock+" Blocked"))
	case m.surface != nil:
		sections = m.viewBlocked(sections)
	default:
		sections = m.viewIdle(sections)
	}

	if m.notice != "" {
		banner := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(m.theme.ColorPrompt)).
			Padding(0, 1).
			Render(m.notice)
		sections = append(sections, "", banner)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewBlocked(sections []string) []string {
	spec := m.surface
	blockStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorBlock))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	sections = append(sections, blockStyle.Render(m.theme.IconLock+" Blocked until"))
	sections = append(sections, "")
	sections = append(sections, renderBigTime(spec.Countdown.EndTime, lipgloss.Color(m.theme.ColorBlock), m.width))
	sections = append(sections, "")
	sections = append(sections, blockStyle.Render(spec.Countdown.Text()))

	if m.status != nil {
		sections = append(sections, "", m.progress.ViewAs(m.status.WindowProgress()))
	}

	var help string
	if spec.HasBypassPIN {
		help = "[b] bypass with PIN"
	} else if m.menu().PINSetter {
		help = "[p] set a bypass PIN"
	}
	if m.editing == editPIN {
		sections = append(sections, "", helpStyle.Render("New PIN: ")+m.editInput.View())
		help = "enter save · esc cancel"
	}
	if help != "" {
		sections = append(sections, "", helpStyle.Render(help))
	}
	return sections
}

func (m Model) viewPrompt(sections []string) []string {
	promptStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorPrompt))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	sections = append(sections, promptStyle.Render("Enter PIN to bypass"))
	sections = append(sections, "", m.pinInput.View())
	sections = append(sections, "", helpStyle.Render("enter submit · esc cancel"))
	return sections
}

func (m Model) viewIdle(sections []string) []string {
	idleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorIdle))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	dimStyle := helpStyle.Faint(true)

	st := m.status
	if st == nil {
		return append(sections, helpStyle.Render("Loading status..."))
	}

	enabled := "off"
	if st.Enabled {
		enabled = "on"
	}
	pin := "no PIN"
	if st.HasBypassPIN {
		pin = "PIN set"
	}
	sections = append(sections, idleStyle.Render(fmt.Sprintf("Blocking %s · %s–%s · %s", enabled, st.From, st.To, pin)))
	if st.Bypassed {
		sections = append(sections, helpStyle.Render(fmt.Sprintf("Bypassed until %s", st.To)))
	}

	if m.editing != editNone {
		label := map[editField]string{editFrom: "From", editTo: "To", editPIN: "New PIN"}[m.editing]
		sections = append(sections, "", helpStyle.Render(label+": ")+m.editInput.View())
		sections = append(sections, helpStyle.Render("enter save · esc cancel"))
		return sections
	}

	item := func(on bool, text string) string {
		if on {
			return helpStyle.Render(text)
		}
		return dimStyle.Render(text)
	}
	menu := st.Menu
	toggle := "[e]nable"
	if st.Enabled {
		toggle = "[e] disable"
	}
	sections = append(sections, "", lipgloss.JoinHorizontal(lipgloss.Top,
		item(menu.EnabledToggle, toggle), "  ",
		item(menu.FromTime, "[f]rom"), "  ",
		item(menu.ToTime, "[t]o"), "  ",
		item(menu.PINSetter, "[p]in"), "  ",
		item(menu.PINClear, "[x] clear pin"), "  ",
		helpStyle.Render("[q]uit"),
	))
	return sections
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
