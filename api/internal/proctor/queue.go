package proctor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"interview-proctor/api/internal/metrics"
)

// AnalyzeFunc runs one analysis cycle. Failures are the callee's business;
// the queue treats success and failure the same way.
type AnalyzeFunc func(ctx context.Context, f *Frame)

// Queue decouples the capture cadence from the analysis cadence.
//
// Drop frames, never queue: a single slot holds the most recent unsent frame
// and every newer submission overwrites it. A rate gate enforces the minimum
// interval between analyses, and at most one analysis is in flight at any
// time. Throughput is strictly demand-driven; a buffered frame that is never
// followed by another submission or a completion is never flushed by a timer.
type Queue struct {
	analyze AnalyzeFunc
	timeout time.Duration

	mu       sync.Mutex
	pending  *Frame
	inFlight bool
	gate     *rate.Limiter
	drops    uint64
}

func NewQueue(analyze AnalyzeFunc, interval, timeout time.Duration) *Queue {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Queue{
		analyze: analyze,
		timeout: timeout,
		gate:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Submit stores a frame and starts an analysis if one is eligible. It always
// returns immediately; an older unsent frame is discarded, never batched.
func (q *Queue) Submit(f *Frame) {
	metrics.FramesSubmitted.Inc()
	q.mu.Lock()
	if q.pending != nil {
		q.drops++
		metrics.FramesDropped.Inc()
	}
	q.pending = f
	q.maybeStartLocked()
	q.mu.Unlock()
}

// SetInterval adjusts the minimum inter-analysis interval at runtime.
func (q *Queue) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	q.mu.Lock()
	q.gate.SetLimit(rate.Every(interval))
	q.mu.Unlock()
}

// Drops reports how many buffered frames were superseded before analysis.
func (q *Queue) Drops() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drops
}

// maybeStartLocked consumes the slot when nothing is in flight and the gate
// allows another analysis. Caller holds q.mu. The gate check comes second so
// a busy cycle does not burn a token.
func (q *Queue) maybeStartLocked() {
	if q.inFlight || q.pending == nil {
		return
	}
	if !q.gate.Allow() {
		return
	}
	f := q.pending
	q.pending = nil
	q.inFlight = true
	go q.run(f)
}

func (q *Queue) run(f *Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	q.analyze(ctx, f)
	cancel()

	q.mu.Lock()
	q.inFlight = false
	// Drain a frame that arrived while busy; the gate still decides whether
	// it goes now or waits for the next eligible submission.
	q.maybeStartLocked()
	q.mu.Unlock()
}
