package countdown

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestTimer_StopBeforeStart verifies that Stop on a timer that was never
// started is a safe no-op and closes Done.
func TestTimer_StopBeforeStart(t *testing.T) {
	timer := NewTimer(time.Minute, testLogger())

	timer.Stop()

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after Stop() on unstarted timer")
	}
}

// TestTimer_StartAfterStop verifies that Start is a no-op once stopped.
func TestTimer_StartAfterStop(t *testing.T) {
	timer := NewTimer(5*time.Millisecond, testLogger())
	timer.Stop()

	var calls atomic.Int32
	timer.Start(context.Background(), func() bool {
		calls.Add(1)
		return true
	})

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("tick called %d times after Stop(), want 0", got)
	}
}

// TestTimer_StopTwice verifies that Stop is idempotent.
func TestTimer_StopTwice(t *testing.T) {
	timer := NewTimer(5*time.Millisecond, testLogger())
	timer.Start(context.Background(), func() bool { return true })

	timer.Stop()
	timer.Stop()
}

// TestTimer_StopsWhenTickReturnsFalse verifies the loop ends on its own
// after the tick function reports completion.
func TestTimer_StopsWhenTickReturnsFalse(t *testing.T) {
	timer := NewTimer(5*time.Millisecond, testLogger())

	var calls atomic.Int32
	timer.Start(context.Background(), func() bool {
		return calls.Add(1) < 3
	})

	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not finish after tick returned false")
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("tick called %d times, want 3", got)
	}

	// further waiting must not produce more ticks
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 3 {
		t.Errorf("tick called %d times after completion, want 3", got)
	}
}

// TestTimer_StopHaltsTicks verifies that Stop prevents further ticks.
func TestTimer_StopHaltsTicks(t *testing.T) {
	timer := NewTimer(5*time.Millisecond, testLogger())

	var calls atomic.Int32
	timer.Start(context.Background(), func() bool {
		calls.Add(1)
		return true
	})

	time.Sleep(30 * time.Millisecond)
	timer.Stop()
	after := calls.Load()

	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Errorf("tick called %d more times after Stop()", got-after)
	}
}

// TestTimer_ContextCancellation verifies the parent context ends the loop.
func TestTimer_ContextCancellation(t *testing.T) {
	timer := NewTimer(5*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	timer.Start(ctx, func() bool { return true })
	cancel()

	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not finish after context cancellation")
	}
}

// TestTimer_FirstTickAfterInterval verifies there is no immediate tick.
func TestTimer_FirstTickAfterInterval(t *testing.T) {
	timer := NewTimer(200*time.Millisecond, testLogger())
	defer timer.Stop()

	var calls atomic.Int32
	timer.Start(context.Background(), func() bool {
		calls.Add(1)
		return true
	})

	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("tick called %d times before first interval elapsed, want 0", got)
	}
}

// TestTimer_PanicRecovered verifies a panicking tick ends the loop without
// crashing the process.
func TestTimer_PanicRecovered(t *testing.T) {
	timer := NewTimer(5*time.Millisecond, testLogger())

	timer.Start(context.Background(), func() bool {
		panic("boom")
	})

	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not finish after panicking tick")
	}
}
