package proctor

import (
	"context"
	"fmt"
	"sync"

	"interview-proctor/api/internal/metrics"
	"interview-proctor/api/internal/util"
)

// Generator is the remote vision model behind the analyzer. Generate returns
// the model's free-text reply for one frame; Probe is a lightweight
// reachability check, distinct from per-frame calls.
type Generator interface {
	Generate(ctx context.Context, img []byte, mime, strictness string) (string, error)
	Probe(ctx context.Context) error
}

// AnalyzerConfig carries the process-wide analysis policy. Zero values fall
// back to the defaults below.
type AnalyzerConfig struct {
	ConfidenceThreshold float64
	DefaultConfidence   float64
	Strictness          string
}

const (
	defaultThreshold  = 0.6
	defaultConfidence = 0.9
	defaultStrictness = "moderate"
)

// Analyzer wraps a single remote-model call per frame: build the request,
// send it, parse the reply, gate by confidence, emit to sinks. Stateless
// across calls apart from the relayed policy knobs.
type Analyzer struct {
	gen   Generator
	sinks Sink

	mu         sync.RWMutex
	threshold  float64
	defConf    float64
	strictness string
}

func NewAnalyzer(gen Generator, sinks Sink, cfg AnalyzerConfig) *Analyzer {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = defaultThreshold
	}
	if cfg.DefaultConfidence <= 0 {
		cfg.DefaultConfidence = defaultConfidence
	}
	if cfg.Strictness == "" {
		cfg.Strictness = defaultStrictness
	}
	return &Analyzer{
		gen:        gen,
		sinks:      sinks,
		threshold:  cfg.ConfidenceThreshold,
		defConf:    cfg.DefaultConfidence,
		strictness: cfg.Strictness,
	}
}

// SetPolicy relays updated session configuration down to the analyzer.
func (a *Analyzer) SetPolicy(threshold float64, strictness string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if threshold > 0 {
		a.threshold = threshold
	}
	if strictness != "" {
		a.strictness = strictness
	}
}

func (a *Analyzer) policy() (threshold, defConf float64, strictness string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.threshold, a.defConf, a.strictness
}

// AnalysisResult is the outcome of one analysis cycle.
type AnalysisResult struct {
	Violations []ViolationEvent `json:"violations"`
	Raw        string           `json:"raw,omitempty"`
}

// Analyze runs one analysis cycle for a frame. Failures are emitted to sinks
// and returned; they are never fatal to the pipeline and never retried here.
// Surviving events are emitted in parse order.
func (a *Analyzer) Analyze(ctx context.Context, f *Frame) (*AnalysisResult, error) {
	threshold, defConf, strictness := a.policy()

	mime := f.MIME
	if mime == "" {
		mime = util.SniffMime(f.Data)
	}

	text, err := a.gen.Generate(ctx, f.Data, mime, strictness)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		wrapped := fmt.Errorf("analyze frame: %w", err)
		a.sinks.OnError(wrapped)
		return nil, wrapped
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()

	parsed := ParseViolations(text, defConf)
	kept := make([]ViolationEvent, 0, len(parsed))
	for _, ev := range parsed {
		// Sub-threshold detections are dropped silently, never surfaced.
		if ev.Confidence < threshold {
			continue
		}
		ev.SessionID = f.SessionID
		kept = append(kept, ev)
	}
	for _, ev := range kept {
		metrics.ViolationsTotal.WithLabelValues(ev.Type).Inc()
		a.sinks.OnViolation(ev)
	}
	return &AnalysisResult{Violations: kept, Raw: text}, nil
}

// Probe checks remote reachability without consuming an analysis cycle.
func (a *Analyzer) Probe(ctx context.Context) error {
	return a.gen.Probe(ctx)
}
