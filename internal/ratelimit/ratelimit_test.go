package ratelimit

import (
	"testing"
	"time"
)

// fixedClock lets tests advance time manually.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(quota, margin int, window, grace time.Duration) (*Limiter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(quota, margin, window, grace)
	l.now = clock.now
	return l, clock
}

func TestNoWaitUnderQuota(t *testing.T) {
	l, _ := newTestLimiter(10, 2, 15*time.Minute, 10*time.Second)

	for i := 0; i < 7; i++ {
		if wait := l.ShouldWait(); wait != 0 {
			t.Fatalf("request %d: expected zero wait, got %v", i, wait)
		}
		l.Record()
	}
}

func TestWaitAtThreshold(t *testing.T) {
	l, _ := newTestLimiter(10, 2, 15*time.Minute, 10*time.Second)

	// quota - margin = 8 recent requests trip the limiter.
	for i := 0; i < 8; i++ {
		l.Record()
	}

	wait := l.ShouldWait()
	if wait <= 0 {
		t.Fatalf("expected positive wait, got %v", wait)
	}
	// Oldest entry exits the window in 15m; grace adds 10s on top.
	want := 15*time.Minute + 10*time.Second
	if wait != want {
		t.Errorf("wait = %v, want %v", wait, want)
	}
}

func TestWaitClearsAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(10, 2, 15*time.Minute, 10*time.Second)

	for i := 0; i < 8; i++ {
		l.Record()
	}
	if l.ShouldWait() == 0 {
		t.Fatal("expected wait while window is full")
	}

	clock.advance(16 * time.Minute)
	if wait := l.ShouldWait(); wait != 0 {
		t.Errorf("expected zero wait after window passed, got %v", wait)
	}
}

func TestMarginClampedBelowQuota(t *testing.T) {
	// margin >= quota would trip the limiter before any request exists.
	l, _ := newTestLimiter(5, 5, 15*time.Minute, 10*time.Second)

	if wait := l.ShouldWait(); wait != 0 {
		t.Errorf("expected zero wait on empty window, got %v", wait)
	}

	for i := 0; i < 4; i++ {
		l.Record()
	}
	if wait := l.ShouldWait(); wait <= 0 {
		t.Errorf("expected positive wait at clamped threshold, got %v", wait)
	}
}

func TestRecordIncrementsByOne(t *testing.T) {
	l, _ := newTestLimiter(10, 2, 15*time.Minute, 0)

	before := l.Recorded()
	l.Record()
	if l.Recorded() != before+1 {
		t.Errorf("recorded = %d, want %d", l.Recorded(), before+1)
	}
}

func TestRecordEvictsOldestAtCapacity(t *testing.T) {
	l, clock := newTestLimiter(3, 0, 15*time.Minute, 0)

	l.Record()
	first := l.requests[0]
	clock.advance(time.Minute)
	l.Record()
	clock.advance(time.Minute)
	l.Record()

	if l.Recorded() != 3 {
		t.Fatalf("recorded = %d, want 3", l.Recorded())
	}

	clock.advance(time.Minute)
	l.Record()
	if l.Recorded() != 3 {
		t.Errorf("recorded = %d after eviction, want 3", l.Recorded())
	}
	for _, r := range l.requests {
		if r.Equal(first) {
			t.Error("oldest timestamp should have been evicted")
		}
	}
}
