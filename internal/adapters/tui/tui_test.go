package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/config"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

type fakeActions struct {
	calls  []string
	pin    string
	from   domain.TimeOfDay
	status *domain.Status
}

func (f *fakeActions) RequestBypass(context.Context) error {
	f.calls = append(f.calls, "request")
	return nil
}
func (f *fakeActions) SubmitBypass(_ context.Context, pin string) error {
	f.calls = append(f.calls, "submit")
	f.pin = pin
	return nil
}
func (f *fakeActions) CancelBypass(context.Context) error {
	f.calls = append(f.calls, "cancel")
	return nil
}
func (f *fakeActions) SetEnabled(_ context.Context, enabled bool) error {
	if enabled {
		f.calls = append(f.calls, "enable")
	} else {
		f.calls = append(f.calls, "disable")
	}
	return nil
}
func (f *fakeActions) SetFromTime(_ context.Context, from domain.TimeOfDay) error {
	f.calls = append(f.calls, "from")
	f.from = from
	return nil
}
func (f *fakeActions) SetToTime(context.Context, domain.TimeOfDay) error {
	f.calls = append(f.calls, "to")
	return nil
}
func (f *fakeActions) SetBypassPIN(_ context.Context, pin string) error {
	f.calls = append(f.calls, "set-pin")
	f.pin = pin
	return nil
}
func (f *fakeActions) ClearBypassPIN(context.Context) error {
	f.calls = append(f.calls, "clear-pin")
	return nil
}
func (f *fakeActions) Snapshot(context.Context) (*domain.Status, error) {
	return f.status, nil
}

var noon = time.Date(2026, 3, 2, 12, 30, 0, 0, time.Local)

func newTestModel(state domain.SessionState, cfg domain.BlockConfig) (Model, *fakeActions) {
	actions := &fakeActions{status: domain.NewStatus(state, cfg, noon)}
	m := NewModel(context.Background(), actions, clock.NewMock(noon), nil)
	m.width = 80
	m.height = 24
	m.status = actions.status
	return m, actions
}

// send delivers a key and drops the resulting command.
func send(m Model, key tea.KeyMsg) Model {
	next, _ := m.Update(key)
	return next.(Model)
}

// press delivers a key and runs the session action it triggers, if any.
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd != nil {
		if done, ok := cmd().(actionDoneMsg); ok && done.err != nil {
			t.Fatalf("action error = %v", done.err)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func blockingConfig(pin string) domain.BlockConfig {
	cfg := domain.DefaultBlockConfig()
	cfg.Enabled = true
	cfg.BypassPIN = pin
	return cfg
}

func showSurface(m Model, pin bool) Model {
	c := domain.NewCountdown(domain.TimeOfDayFrom(noon), domain.DefaultToTime)
	next, _ := m.Update(surfaceMsg{id: 1, spec: ports.SurfaceSpec{Countdown: c, HasBypassPIN: pin, Modal: true}, reveal: true})
	return next.(Model)
}

func TestResolveTheme(t *testing.T) {
	got := resolveTheme(&config.ThemeConfig{ColorBlock: "#000000"})
	if got.ColorBlock != "#000000" {
		t.Errorf("resolveTheme() kept ColorBlock = %v", got.ColorBlock)
	}
	if got.ColorIdle != config.DefaultThemeConfig().ColorIdle {
		t.Errorf("resolveTheme() ColorIdle = %v, want default", got.ColorIdle)
	}
	if resolveTheme(nil) != config.DefaultThemeConfig() {
		t.Error("resolveTheme(nil) should return defaults")
	}
}

func TestRenderBigTime(t *testing.T) {
	wide := renderBigTime("19:00", "#FFFFFF", 80)
	if lines := strings.Split(wide, "\n"); len(lines) != glyphRows {
		t.Errorf("renderBigTime() rows = %d, want %d", len(lines), glyphRows)
	}
	narrow := renderBigTime("19:00", "#FFFFFF", 30)
	if !strings.Contains(narrow, "19:00") || strings.Contains(narrow, "\n") {
		t.Errorf("renderBigTime() narrow = %q", narrow)
	}
}

func TestModel_View_Loading(t *testing.T) {
	m := NewModel(context.Background(), &fakeActions{}, clock.NewMock(noon), nil)
	if m.View() != "Loading..." {
		t.Error("View() should show loading before the first resize")
	}
}

func TestModel_View_Blocked(t *testing.T) {
	m, _ := newTestModel(domain.StateBlocking, blockingConfig("1234"))
	m = showSurface(m, true)

	view := m.View()
	for _, want := range []string{"Blocked until", "6h 30m remaining", "[b] bypass with PIN"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_View_BlockedWithoutPIN(t *testing.T) {
	m, _ := newTestModel(domain.StateBlocking, blockingConfig(""))
	m = showSurface(m, false)

	view := m.View()
	if strings.Contains(view, "bypass with PIN") {
		t.Error("View() should not offer a bypass without a PIN")
	}
	if !strings.Contains(view, "[p] set a bypass PIN") {
		t.Error("View() should offer to set the first PIN")
	}
}

func TestModel_BlockedIgnoresQuit(t *testing.T) {
	m, actions := newTestModel(domain.StateBlocking, blockingConfig("1234"))
	m = showSurface(m, true)

	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}, runes("e")} {
		_, cmd := m.Update(key)
		if cmd != nil {
			t.Errorf("Update(%q) returned a command while blocked", key.String())
		}
	}
	if len(actions.calls) != 0 {
		t.Errorf("calls = %v, want none", actions.calls)
	}
	m = send(m, runes("q"))
	if !strings.Contains(m.View(), domain.MsgBlockActive) {
		t.Error("quit during a block should explain why it was refused")
	}
}

func TestModel_QuitRefusedWhileSurfaceHidden(t *testing.T) {
	tests := []struct {
		name  string
		close tea.KeyMsg
		typed string
	}{
		{"cancelled prompt", tea.KeyMsg{Type: tea.KeyEsc}, ""},
		{"wrong PIN", tea.KeyMsg{Type: tea.KeyEnter}, "0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(domain.StateBlocking, blockingConfig("1234"))
			m = showSurface(m, true)
			next, _ := m.Update(hideMsg{id: 1})
			m = next.(Model)
			next, _ = m.Update(promptMsg{})
			m = next.(Model)

			m = typeText(m, tt.typed)
			m = press(t, m, tt.close)
			if m.prompting {
				t.Fatal("the prompt should be closed")
			}
			if !strings.Contains(m.View(), "Blocked") {
				t.Error("View() should keep showing the block while the surface is hidden")
			}

			for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
				if _, cmd := m.Update(key); cmd != nil {
					if _, quit := cmd().(tea.QuitMsg); quit {
						t.Errorf("Update(%q) quit during the settle gap", key.String())
					}
				}
			}

			c := domain.NewCountdown(domain.TimeOfDayFrom(noon), domain.DefaultToTime)
			next, _ = m.Update(surfaceMsg{id: 1, spec: ports.SurfaceSpec{Countdown: c, HasBypassPIN: true}, reveal: true})
			m = next.(Model)
			if !strings.Contains(m.View(), "Blocked until") {
				t.Error("ShowBlockingSurface should bring the full screen back")
			}
		})
	}
}

func TestModel_DismissClosesPrompt(t *testing.T) {
	m, actions := newTestModel(domain.StateBypassPrompt, blockingConfig("1234"))
	m = showSurface(m, true)
	next, _ := m.Update(hideMsg{id: 1})
	m = next.(Model)
	next, _ = m.Update(promptMsg{})
	m = next.(Model)

	// The window ends while the prompt is open.
	next, _ = m.Update(dismissMsg{id: 1})
	m = next.(Model)

	if m.prompting {
		t.Error("dismissing the surface should close the PIN prompt")
	}
	m = typeText(m, "1234")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(actions.calls) != 0 {
		t.Errorf("calls = %v, want none", actions.calls)
	}
}

func TestModel_BypassFlow(t *testing.T) {
	m, actions := newTestModel(domain.StateBlocking, blockingConfig("1234"))
	m = showSurface(m, true)

	m = press(t, m, runes("b"))
	next, _ := m.Update(hideMsg{id: 1})
	m = next.(Model)
	next, _ = m.Update(promptMsg{})
	m = next.(Model)

	if !m.prompting {
		t.Fatal("promptMsg should open the PIN input")
	}
	if !strings.Contains(m.View(), "Enter PIN to bypass") {
		t.Error("View() should show the PIN prompt")
	}

	m = typeText(m, "1234")
	if strings.Contains(m.View(), "1234") {
		t.Error("PIN input must not echo digits")
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.prompting {
		t.Error("enter should close the prompt")
	}
	if strings.Join(actions.calls, ",") != "request,submit" || actions.pin != "1234" {
		t.Errorf("calls = %v pin = %q", actions.calls, actions.pin)
	}
}

func TestModel_CancelPrompt(t *testing.T) {
	m, actions := newTestModel(domain.StateBypassPrompt, blockingConfig("1234"))
	next, _ := m.Update(promptMsg{})
	m = next.(Model)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.prompting {
		t.Error("esc should close the prompt")
	}
	if len(actions.calls) != 1 || actions.calls[0] != "cancel" {
		t.Errorf("calls = %v, want [cancel]", actions.calls)
	}
}

func TestModel_IdleMenu(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.BlockConfig
		keys []tea.KeyMsg
		want string
	}{
		{"enable", domain.DefaultBlockConfig(), []tea.KeyMsg{runes("e")}, "enable"},
		{"disable", blockingConfig(""), []tea.KeyMsg{runes("e")}, "disable"},
		{"clear pin", blockingConfig("1234"), []tea.KeyMsg{runes("x")}, "clear-pin"},
		{"clear without pin", blockingConfig(""), []tea.KeyMsg{runes("x")}, ""},
		{"set pin", domain.DefaultBlockConfig(), []tea.KeyMsg{runes("p"), runes("4"), runes("3"), runes("2"), runes("1"), {Type: tea.KeyEnter}}, "set-pin"},
		{"edit cancelled", domain.DefaultBlockConfig(), []tea.KeyMsg{runes("t"), {Type: tea.KeyEsc}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, actions := newTestModel(domain.StateIdle, tt.cfg)
			last := len(tt.keys) - 1
			for _, k := range tt.keys[:last] {
				m = send(m, k)
			}
			press(t, m, tt.keys[last])
			got := strings.Join(actions.calls, ",")
			if got != tt.want {
				t.Errorf("calls = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModel_EditFromTime(t *testing.T) {
	m, actions := newTestModel(domain.StateIdle, domain.DefaultBlockConfig())

	m = send(m, runes("f"))
	if !strings.Contains(m.View(), "From:") {
		t.Error("View() should show the from editor")
	}
	for i := 0; i < 5; i++ {
		m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = typeText(m, "07:15")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if actions.from != (domain.TimeOfDay{Hour: 7, Min: 15}) {
		t.Errorf("from = %v, want 07:15", actions.from)
	}
}

func TestModel_EditRejectsBadTime(t *testing.T) {
	m, actions := newTestModel(domain.StateIdle, domain.DefaultBlockConfig())

	m = send(m, runes("t"))
	for i := 0; i < 5; i++ {
		m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = typeText(m, "25:00")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(actions.calls) != 0 {
		t.Errorf("calls = %v, want none", actions.calls)
	}
	if !strings.Contains(m.View(), "Invalid time") {
		t.Error("View() should show the parse error")
	}
}

func TestModel_NoticeExpires(t *testing.T) {
	m, _ := newTestModel(domain.StateIdle, domain.DefaultBlockConfig())
	clk := m.clock.(*clock.Mock)

	next, _ := m.Update(noticeMsg{text: domain.MsgBlockEnded, timeout: domain.AnnounceTimeout})
	m = next.(Model)
	if !strings.Contains(m.View(), domain.MsgBlockEnded) {
		t.Fatal("View() should show the notice")
	}

	clk.Advance(domain.AnnounceTimeout)
	next, _ = m.Update(tickMsg(clk.Now()))
	m = next.(Model)
	if strings.Contains(m.View(), domain.MsgBlockEnded) {
		t.Error("notice should expire after its timeout")
	}
}

func TestModel_DismissIgnoresStaleHandle(t *testing.T) {
	m, _ := newTestModel(domain.StateBlocking, blockingConfig(""))
	m = showSurface(m, false)

	next, _ := m.Update(dismissMsg{id: 7})
	m = next.(Model)
	if m.surface == nil {
		t.Error("a stale handle must not dismiss the current surface")
	}

	next, _ = m.Update(dismissMsg{id: 1})
	m = next.(Model)
	if m.surface != nil {
		t.Error("dismissMsg should hide the surface")
	}
}
