package ports

import (
	"context"
	"time"
)

// TimerHandle identifies a scheduled callback. Zero means none.
type TimerHandle uint64

// Scheduler runs delayed callbacks on the session's event loop.
// This is a driven port (implemented by the scheduler package).
type Scheduler interface {
	// AfterFunc schedules fn to run on the loop after d.
	AfterFunc(d time.Duration, fn func()) TimerHandle

	// Cancel stops a scheduled callback. A cancelled callback never runs,
	// even if its timer already expired. Cancelling zero or a stale
	// handle is a no-op.
	Cancel(h TimerHandle)
}

// Dispatcher hands work to the event loop from other goroutines.
// This is a driving port (used by hosts, watchers and signal handlers).
type Dispatcher interface {
	// Post queues fn and returns immediately. It reports false once the
	// loop has stopped.
	Post(fn func()) bool

	// Call queues fn and waits for it to finish.
	Call(ctx context.Context, fn func()) error
}
