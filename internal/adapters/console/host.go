// Package console provides a line-oriented host for terminals without
// TUI support and a quiet host for one-shot commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// Options configures a console host.
type Options struct {
	// Quiet drops all output. One-shot commands report results themselves.
	Quiet bool
}

// Host implements ports.Host by printing lines to a writer.
type Host struct {
	mu        sync.Mutex
	out       io.Writer
	quiet     bool
	next      ports.SurfaceHandle
	surface   ports.SurfaceHandle
	hidden    bool
	prompting bool
	lastLine  string
}

// New creates a console host writing to out.
func New(out io.Writer, opts Options) *Host {
	return &Host{out: out, quiet: opts.Quiet}
}

// NewQuiet creates a host that renders nothing.
func NewQuiet() *Host {
	return New(io.Discard, Options{Quiet: true})
}

func (h *Host) printf(format string, args ...any) {
	if h.quiet {
		return
	}
	fmt.Fprintf(h.out, format+"\n", args...)
}

func surfaceLine(spec ports.SurfaceSpec) string {
	line := "⛔ " + spec.Countdown.Line()
	if spec.HasBypassPIN {
		line += " · type b to bypass"
	}
	return line
}

// PresentBlockingSurface prints the block banner.
func (h *Host) PresentBlockingSurface(spec ports.SurfaceSpec) ports.SurfaceHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.surface = h.next
	h.hidden = false
	h.prompting = false
	h.lastLine = surfaceLine(spec)
	h.printf("%s", h.lastLine)
	return h.next
}

// UpdateBlockingSurface reprints the banner when its text changed.
func (h *Host) UpdateBlockingSurface(id ports.SurfaceHandle, spec ports.SurfaceSpec) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id != h.surface || h.hidden {
		return
	}
	line := surfaceLine(spec)
	if line == h.lastLine {
		return
	}
	h.lastLine = line
	h.printf("%s", line)
}

// HideBlockingSurface stops printing the banner. Quitting stays refused.
func (h *Host) HideBlockingSurface(id ports.SurfaceHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id != h.surface {
		return
	}
	h.hidden = true
	h.lastLine = ""
}

// ShowBlockingSurface prints the banner again.
func (h *Host) ShowBlockingSurface(id ports.SurfaceHandle, spec ports.SurfaceSpec) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id != h.surface {
		return
	}
	h.hidden = false
	h.lastLine = surfaceLine(spec)
	h.printf("%s", h.lastLine)
}

// DismissBlockingSurface ends the block and drops a pending PIN prompt.
func (h *Host) DismissBlockingSurface(id ports.SurfaceHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id != h.surface {
		return
	}
	h.surface = 0
	h.hidden = false
	h.prompting = false
	h.lastLine = ""
}

// PresentBypassPrompt asks for the PIN on the next input line.
func (h *Host) PresentBypassPrompt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompting = true
	h.printf("Enter PIN (empty line cancels):")
}

// Notify prints a notice line.
func (h *Host) Notify(message string, timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.printf("» %s", message)
}

func (h *Host) takePrompt() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.prompting
	h.prompting = false
	return p
}

func (h *Host) blocking() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surface != 0 || h.prompting
}

// ErrQuit is returned by ReadInput when the user asked to quit.
var ErrQuit = errors.New("quit requested")

// ReadInput turns input lines into session actions until in is exhausted,
// ctx is cancelled or the user quits while no block is in force.
func (h *Host) ReadInput(ctx context.Context, in io.Reader, actions ports.SessionActions) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := h.handleLine(ctx, line, actions); err != nil {
				return err
			}
		}
	}
}

func (h *Host) handleLine(ctx context.Context, line string, actions ports.SessionActions) error {
	if h.takePrompt() {
		if line == "" {
			return ignoreDomain(actions.CancelBypass(ctx))
		}
		return ignoreDomain(actions.SubmitBypass(ctx, line))
	}

	switch line {
	case "b":
		return ignoreDomain(actions.RequestBypass(ctx))
	case "q":
		if h.blocking() {
			h.Notify(domain.MsgBlockActive, domain.NotifyTimeout)
			return nil
		}
		return ErrQuit
	}
	return nil
}

// ignoreDomain drops errors the session already reported to the user.
func ignoreDomain(err error) error {
	for _, known := range []error{
		domain.ErrIncorrectPIN,
		domain.ErrNoBypassPIN,
		domain.ErrNotBlocking,
		domain.ErrNotAwaitingBypass,
	} {
		if errors.Is(err, known) {
			return nil
		}
	}
	return err
}

// Ensure Host implements ports.Host.
var _ ports.Host = (*Host)(nil)
