package proctor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueCoalescesWhileBusy(t *testing.T) {
	block := make(chan struct{})
	started := make(chan *Frame, 8)
	var calls int32

	q := NewQueue(func(ctx context.Context, f *Frame) {
		atomic.AddInt32(&calls, 1)
		started <- f
		<-block
	}, time.Millisecond, time.Second)

	q.Submit(&Frame{SessionID: "a"})
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first analysis never started")
	}

	// Three rapid submissions while busy: only the newest may survive.
	q.Submit(&Frame{SessionID: "b"})
	q.Submit(&Frame{SessionID: "c"})
	q.Submit(&Frame{SessionID: "d"})

	if d := q.Drops(); d != 2 {
		t.Errorf("drops = %d, want 2", d)
	}

	time.Sleep(5 * time.Millisecond) // let the gate refill
	close(block)

	select {
	case f := <-started:
		if f.SessionID != "d" {
			t.Errorf("drained frame = %q, want newest", f.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("buffered frame never drained")
	}

	time.Sleep(20 * time.Millisecond)
	if c := atomic.LoadInt32(&calls); c != 2 {
		t.Errorf("analysis calls = %d, want 2", c)
	}
}

func TestQueueEnforcesInterval(t *testing.T) {
	var calls int32
	q := NewQueue(func(ctx context.Context, f *Frame) {
		atomic.AddInt32(&calls, 1)
	}, time.Hour, time.Second)

	q.Submit(&Frame{})
	q.Submit(&Frame{})
	q.Submit(&Frame{})

	time.Sleep(20 * time.Millisecond)
	if c := atomic.LoadInt32(&calls); c != 1 {
		t.Errorf("analysis calls = %d, want 1 within the interval", c)
	}
}

func TestQueueNoTimerFlush(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	q := NewQueue(func(ctx context.Context, f *Frame) {
		started <- struct{}{}
		<-release
	}, time.Hour, time.Second)

	q.Submit(&Frame{})
	<-started
	q.Submit(&Frame{}) // waits in the slot; gate denies the drain
	close(release)

	select {
	case <-started:
		t.Fatal("buffered frame analyzed without an eligible submission")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestQueueSubmitNeverBlocks(t *testing.T) {
	q := NewQueue(func(ctx context.Context, f *Frame) {
		time.Sleep(time.Hour)
	}, time.Millisecond, time.Second)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Submit(&Frame{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked")
	}
}
