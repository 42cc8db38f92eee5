package proctor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeGen struct {
	reply    string
	err      error
	probeErr error
	calls    int32
}

func (f *fakeGen) Generate(ctx context.Context, img []byte, mime, strictness string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.reply, f.err
}

func (f *fakeGen) Probe(ctx context.Context) error { return f.probeErr }

type recordSink struct {
	mu     sync.Mutex
	events []ViolationEvent
	errs   []error
}

func (r *recordSink) OnViolation(ev ViolationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordSink) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordSink) snapshot() ([]ViolationEvent, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ViolationEvent(nil), r.events...), append([]error(nil), r.errs...)
}

func TestAnalyzerEmitsParsedViolations(t *testing.T) {
	gen := &fakeGen{reply: "PROCTORING_VIOLATION: Looking Away\nPROCTORING_VIOLATION: Multiple Faces Detected"}
	sink := &recordSink{}
	a := NewAnalyzer(gen, sink, AnalyzerConfig{ConfidenceThreshold: 0.5, DefaultConfidence: 0.9})

	res, err := a.Analyze(context.Background(), &Frame{Data: []byte{0xFF, 0xD8}, SessionID: "s1"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
	events, errs := sink.snapshot()
	if len(events) != 2 || len(errs) != 0 {
		t.Fatalf("sink got %d events, %d errors", len(events), len(errs))
	}
	if events[0].Type != "Looking Away" || events[1].Type != "Multiple Faces Detected" {
		t.Errorf("emit order wrong: %q, %q", events[0].Type, events[1].Type)
	}
	if events[0].SessionID != "s1" {
		t.Errorf("session id not attached: %q", events[0].SessionID)
	}
}

func TestAnalyzerCleanFrameEmitsNothing(t *testing.T) {
	gen := &fakeGen{reply: "OK"}
	sink := &recordSink{}
	a := NewAnalyzer(gen, sink, AnalyzerConfig{})

	res, err := a.Analyze(context.Background(), &Frame{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Errorf("expected no violations, got %d", len(res.Violations))
	}
	if events, _ := sink.snapshot(); len(events) != 0 {
		t.Errorf("sink got %d events, want 0", len(events))
	}
}

func TestAnalyzerConfidenceGate(t *testing.T) {
	gen := &fakeGen{reply: "PROCTORING_VIOLATION: Looking Away"}
	sink := &recordSink{}
	// Default confidence below the threshold: nothing may surface.
	a := NewAnalyzer(gen, sink, AnalyzerConfig{ConfidenceThreshold: 0.95, DefaultConfidence: 0.9})

	res, err := a.Analyze(context.Background(), &Frame{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("sub-threshold violation surfaced")
	}
	if events, _ := sink.snapshot(); len(events) != 0 {
		t.Fatalf("sub-threshold violation emitted to sink")
	}

	// At the threshold it must be emitted exactly once.
	a.SetPolicy(0.9, "")
	res, err = a.Analyze(context.Background(), &Frame{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("at-threshold violation dropped")
	}
	if events, _ := sink.snapshot(); len(events) != 1 {
		t.Fatalf("expected exactly one emitted event, got %d", len(events))
	}
}

func TestAnalyzerErrorGoesToSink(t *testing.T) {
	gen := &fakeGen{err: errors.New("upstream 503")}
	sink := &recordSink{}
	a := NewAnalyzer(gen, sink, AnalyzerConfig{})

	if _, err := a.Analyze(context.Background(), &Frame{Data: []byte("x")}); err == nil {
		t.Fatal("expected error")
	}
	events, errs := sink.snapshot()
	if len(errs) != 1 {
		t.Fatalf("sink got %d errors, want 1", len(errs))
	}
	if len(events) != 0 {
		t.Fatalf("error cycle emitted events")
	}
}
