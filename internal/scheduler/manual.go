package scheduler

import (
	"context"
	"time"

	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/ports"
)

type manualTask struct {
	due time.Duration
	seq uint64
	fn  func()
}

// Manual is a scheduler driven by explicit Advance calls. Posted work runs
// inline. It is used by tests and by one-shot CLI commands, which never
// wait for a timer.
type Manual struct {
	clk     *clock.Mock
	elapsed time.Duration
	nextID  uint64
	tasks   map[ports.TimerHandle]*manualTask
}

// NewManual creates a manual scheduler. When clk is non-nil it is moved
// forward in step with virtual time.
func NewManual(clk *clock.Mock) *Manual {
	return &Manual{
		clk:   clk,
		tasks: make(map[ports.TimerHandle]*manualTask),
	}
}

// AfterFunc schedules fn to run once virtual time has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) ports.TimerHandle {
	m.nextID++
	h := ports.TimerHandle(m.nextID)
	m.tasks[h] = &manualTask{due: m.elapsed + d, seq: m.nextID, fn: fn}
	return h
}

// Cancel removes h. Stale and zero handles are ignored.
func (m *Manual) Cancel(h ports.TimerHandle) {
	delete(m.tasks, h)
}

// Pending returns the number of scheduled callbacks that have not run.
func (m *Manual) Pending() int {
	return len(m.tasks)
}

// Advance moves virtual time forward by d, running every callback that
// falls due in order. Callbacks may schedule or cancel others.
func (m *Manual) Advance(d time.Duration) {
	target := m.elapsed + d
	for {
		h, next := m.earliest()
		if next == nil || next.due > target {
			break
		}
		delete(m.tasks, h)
		m.moveTo(next.due)
		next.fn()
	}
	m.moveTo(target)
}

func (m *Manual) earliest() (ports.TimerHandle, *manualTask) {
	var (
		bestH ports.TimerHandle
		best  *manualTask
	)
	for h, t := range m.tasks {
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			bestH, best = h, t
		}
	}
	return bestH, best
}

func (m *Manual) moveTo(at time.Duration) {
	if at <= m.elapsed {
		return
	}
	if m.clk != nil {
		m.clk.Advance(at - m.elapsed)
	}
	m.elapsed = at
}

// Post runs fn immediately.
func (m *Manual) Post(fn func()) bool {
	fn()
	return true
}

// Call runs fn immediately.
func (m *Manual) Call(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

var (
	_ ports.Scheduler  = (*Manual)(nil)
	_ ports.Dispatcher = (*Manual)(nil)
)
