// Package ratelimit implements fixed-window per-address request throttling
// for the proctoring API surface.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// entry tracks one client address within the current window. Once the window
// reset time has passed the entry is stale and gets replaced, not
// incremented.
type entry struct {
	count       int
	windowReset time.Time
}

// Limiter is the shared table of per-address windows. The whole
// check-and-increment runs under one mutex so concurrent requests can never
// push a count past the maximum.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	max    int
	window time.Duration

	sweepTick *time.Ticker
	done      chan struct{}
	now       func() time.Time
}

// New creates a limiter allowing max requests per window per address and
// starts the background sweep. Callers own the lifecycle: Close on shutdown.
func New(max int, window, sweepEvery time.Duration) *Limiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	l := &Limiter{
		entries:   make(map[string]*entry),
		max:       max,
		window:    window,
		sweepTick: time.NewTicker(sweepEvery),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	go l.sweepLoop()
	return l
}

// Result reports the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is the number of seconds until the window resets, rounded up.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.Reset.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Allow runs the check-and-increment for one request from addr.
func (l *Limiter) Allow(addr string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[addr]
	if !ok || now.After(e.windowReset) {
		e = &entry{count: 1, windowReset: now.Add(l.window)}
		l.entries[addr] = e
		return Result{Allowed: true, Limit: l.max, Remaining: l.max - 1, Reset: e.windowReset}
	}
	if e.count >= l.max {
		return Result{Allowed: false, Limit: l.max, Remaining: 0, Reset: e.windowReset}
	}
	e.count++
	return Result{Allowed: true, Limit: l.max, Remaining: l.max - e.count, Reset: e.windowReset}
}

// Close stops the sweep goroutine.
func (l *Limiter) Close() {
	l.sweepTick.Stop()
	close(l.done)
}

func (l *Limiter) sweepLoop() {
	for {
		select {
		case <-l.sweepTick.C:
			l.sweepExpired()
		case <-l.done:
			return
		}
	}
}

// sweepExpired evicts entries whose window has passed, bounding the table to
// recently-active addresses.
func (l *Limiter) sweepExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for addr, e := range l.entries {
		if now.After(e.windowReset) {
			delete(l.entries, addr)
			removed++
		}
	}
	return removed
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
