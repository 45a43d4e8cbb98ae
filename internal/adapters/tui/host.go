package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/focusgate/internal/ports"
)

// surfaceMsg presents or refreshes a surface. reveal puts a hidden one
// back on screen.
type surfaceMsg struct {
	id     ports.SurfaceHandle
	spec   ports.SurfaceSpec
	reveal bool
}

type hideMsg struct {
	id ports.SurfaceHandle
}

type dismissMsg struct {
	id ports.SurfaceHandle
}

type promptMsg struct{}

type noticeMsg struct {
	text    string
	timeout time.Duration
}

// Host implements ports.Host by forwarding every call to a running
// bubbletea program as a message.
type Host struct {
	mu      sync.Mutex
	program *tea.Program
	next    ports.SurfaceHandle
}

// NewHost creates a host with no program attached. Calls made before
// Run attaches one are dropped.
func NewHost() *Host {
	return &Host{}
}

func (h *Host) attach(p *tea.Program) {
	h.mu.Lock()
	h.program = p
	h.mu.Unlock()
}

func (h *Host) send(msg tea.Msg) {
	h.mu.Lock()
	p := h.program
	h.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// PresentBlockingSurface shows the blocking screen.
func (h *Host) PresentBlockingSurface(spec ports.SurfaceSpec) ports.SurfaceHandle {
	h.mu.Lock()
	h.next++
	id := h.next
	h.mu.Unlock()
	h.send(surfaceMsg{id: id, spec: spec, reveal: true})
	return id
}

// UpdateBlockingSurface refreshes the blocking screen in place.
func (h *Host) UpdateBlockingSurface(id ports.SurfaceHandle, spec ports.SurfaceSpec) {
	h.send(surfaceMsg{id: id, spec: spec})
}

// HideBlockingSurface takes the blocking screen down while the block holds.
func (h *Host) HideBlockingSurface(id ports.SurfaceHandle) {
	h.send(hideMsg{id: id})
}

// ShowBlockingSurface brings a hidden blocking screen back.
func (h *Host) ShowBlockingSurface(id ports.SurfaceHandle, spec ports.SurfaceSpec) {
	h.send(surfaceMsg{id: id, spec: spec, reveal: true})
}

// DismissBlockingSurface ends the blocking screen and any PIN prompt.
func (h *Host) DismissBlockingSurface(id ports.SurfaceHandle) {
	h.send(dismissMsg{id: id})
}

// PresentBypassPrompt opens the PIN input.
func (h *Host) PresentBypassPrompt() {
	h.send(promptMsg{})
}

// Notify shows a transient banner.
func (h *Host) Notify(message string, timeout time.Duration) {
	h.send(noticeMsg{text: message, timeout: timeout})
}

// Ensure Host implements ports.Host.
var _ ports.Host = (*Host)(nil)

// Run shows the TUI until the user quits or ctx is cancelled. ready runs
// once the program is accepting messages.
func Run(ctx context.Context, host *Host, model Model, ready func()) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	host.attach(p)
	defer host.attach(nil)

	if ready != nil {
		go ready()
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
