// Package ratelimit tracks outbound API requests against a rolling-window
// quota. The limiter is advisory: ShouldWait reports how long the caller must
// sleep before the next request, and the caller enforces the wait.
package ratelimit

import "time"

// Limiter tracks request timestamps in a capped FIFO window.
// It is used from a single goroutine and needs no locking.
type Limiter struct {
	quota  int
	margin int
	window time.Duration
	grace  time.Duration
	now    func() time.Time

	requests []time.Time
}

// New creates a limiter for quota requests per rolling window, holding back
// margin requests of headroom and adding grace to every computed wait.
// A margin at or above the quota would leave no sendable requests, so it is
// clamped below the quota.
func New(quota, margin int, window, grace time.Duration) *Limiter {
	if quota < 1 {
		quota = 1
	}
	if margin >= quota {
		margin = quota - 1
	}
	return &Limiter{
		quota:  quota,
		margin: margin,
		window: window,
		grace:  grace,
		now:    time.Now,
	}
}

// ShouldWait returns how long the caller must sleep before issuing the next
// request, or zero if the window has headroom.
func (l *Limiter) ShouldWait() time.Duration {
	cutoff := l.now().Add(-l.window)
	recent := 0
	for _, r := range l.requests {
		if r.After(cutoff) {
			recent++
		}
	}
	if recent < l.quota-l.margin || len(l.requests) == 0 {
		return 0
	}

	oldest := l.requests[0]
	for _, r := range l.requests[1:] {
		if r.Before(oldest) {
			oldest = r
		}
	}
	wait := oldest.Add(l.window).Sub(l.now())
	if wait < 0 {
		wait = 0
	}
	return wait + l.grace
}

// Record appends the current timestamp, evicting the oldest entry once the
// window is at capacity.
func (l *Limiter) Record() {
	if len(l.requests) >= l.quota {
		l.requests = l.requests[1:]
	}
	l.requests = append(l.requests, l.now())
}

// Recorded returns the number of timestamps currently tracked.
func (l *Limiter) Recorded() int {
	return len(l.requests)
}
