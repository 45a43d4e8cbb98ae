// Package scheduler provides the single-threaded event loop the block
// session runs on, and a manual variant that advances virtual time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xvierd/focusgate/internal/ports"
)

// ErrStopped is returned when work is handed to a loop that has exited.
var ErrStopped = errors.New("event loop stopped")

const queueSize = 64

// Loop runs posted closures and timer callbacks one at a time on the
// goroutine that calls Run. Everything the block session does happens
// there, so the session itself needs no locks.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	log   zerolog.Logger

	mu     sync.Mutex
	nextID uint64
	timers map[ports.TimerHandle]*time.Timer
}

// NewLoop creates a loop. It does nothing until Run is called.
func NewLoop(logger zerolog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		log:    logger.With().Str("component", "loop").Logger(),
		timers: make(map[ports.TimerHandle]*time.Timer),
	}
}

// Run processes work until ctx is cancelled. Pending timers are stopped
// on exit and queued work is dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

func (l *Loop) shutdown() {
	close(l.done)
	l.mu.Lock()
	defer l.mu.Unlock()
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
	l.log.Debug().Msg("event loop stopped")
}

// Post queues fn. It never blocks once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call queues fn and waits until it has run. It must not be called from
// the loop goroutine itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// AfterFunc schedules fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) ports.TimerHandle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	h := ports.TimerHandle(l.nextID)
	l.timers[h] = time.AfterFunc(d, func() {
		l.Post(func() { l.fire(h, fn) })
	})
	return h
}

// fire runs fn only if h was not cancelled while the callback sat in the queue.
func (l *Loop) fire(h ports.TimerHandle, fn func()) {
	l.mu.Lock()
	_, live := l.timers[h]
	delete(l.timers, h)
	l.mu.Unlock()

	if !live {
		l.log.Debug().Uint64("timer", uint64(h)).Msg("dropped cancelled timer")
		return
	}
	fn()
}

// Cancel stops h. Stale and zero handles are ignored.
func (l *Loop) Cancel(h ports.TimerHandle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timers[h]; ok {
		t.Stop()
		delete(l.timers, h)
	}
}

// Pending returns the number of scheduled callbacks that have not run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

var (
	_ ports.Scheduler  = (*Loop)(nil)
	_ ports.Dispatcher = (*Loop)(nil)
)
