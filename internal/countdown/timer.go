package countdown

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TickFunc is called once per interval. Returning false ends the loop.
type TickFunc func() bool

// Timer calls a [TickFunc] at a fixed interval until the function returns
// false, [Timer.Stop] is called, or the parent context is cancelled.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Timer struct {
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	doneOnce sync.Once
}

// NewTimer creates a [Timer] that ticks every interval.
//
// The timer does nothing until [Timer.Start] is called.
func NewTimer(interval time.Duration, logger *slog.Logger) *Timer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine.
//
// The first tick fires one interval after Start, not immediately.
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (t *Timer) Start(ctx context.Context, fn TickFunc) {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer t.closeDone()
		defer cancel()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if !t.safeTick(fn) {
					return
				}
			}
		}
	}()
}

// Stop cancels the timer and blocks until the tick goroutine has exited.
//
// Stop must not be called from inside the TickFunc; return false instead.
// Safe to call multiple times, and safe to call before Start.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		t.wg.Wait()
		return
	}
	t.stopped = true
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()

	// never started: nothing else will close done
	t.closeDone()
}

// Done returns a channel that is closed once the timer has finished,
// whether it ran to completion or was stopped.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Interval returns the tick interval.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

func (t *Timer) closeDone() {
	t.doneOnce.Do(func() { close(t.done) })
}

// safeTick runs fn with panic recovery. A panic is logged with a
// correlation ID and ends the loop.
func (t *Timer) safeTick(fn TickFunc) (more bool) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			t.logger.Error("countdown tick panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			more = false
		}
	}()
	return fn()
}
