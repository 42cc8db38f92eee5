package proctor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the session's connection state toward the remote service.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned when an operation requires a connected session.
var ErrNotConnected = errors.New("session not connected")

// SessionConfig is the runtime policy a client may push to a live session.
type SessionConfig struct {
	Strictness          string  `json:"strictness,omitempty"`
	ConfidenceThreshold float64 `json:"confidenceThreshold,omitempty"`
	AnalysisIntervalSec int     `json:"analysisIntervalSec,omitempty"`
}

// Session tracks logical connected state to the remote model and relays
// configuration down to the analyzer and queue. Frames are forwarded only
// while connected; otherwise the most recent one is held awaiting the
// transition, consistent with the queue's single-slot policy.
type Session struct {
	analyzer *Analyzer
	queue    *Queue
	signal   SignalFunc

	mu      sync.Mutex
	state   State
	held    *Frame
}

func NewSession(analyzer *Analyzer, queue *Queue, signal SignalFunc) *Session {
	return &Session{
		analyzer: analyzer,
		queue:    queue,
		signal:   signal,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) emit(kind string, payload any) {
	if s.signal != nil {
		s.signal(newSignal(kind, payload))
	}
}

// Connect performs the reachability check and transitions to Connected. On
// failure the session stays Disconnected and the error goes to the caller;
// retry policy is the caller's.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateConnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.mu.Unlock()

	if err := s.analyzer.Probe(ctx); err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return fmt.Errorf("connect: %w", err)
	}

	s.mu.Lock()
	s.state = StateConnected
	held := s.held
	s.held = nil
	s.mu.Unlock()

	s.emit("open", nil)
	if held != nil {
		s.queue.Submit(held)
	}
	return nil
}

// Disconnect transitions to Disconnected and emits "close". Idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	s.held = nil
	s.mu.Unlock()
	s.emit("close", nil)
}

// SendConfig relays policy to the analyzer and queue. Only meaningful while
// connected; while disconnected it is dropped with a warning signal and
// ErrNotConnected, never queued for later delivery.
func (s *Session) SendConfig(cfg SessionConfig) error {
	s.mu.Lock()
	connected := s.state == StateConnected
	s.mu.Unlock()
	if !connected {
		s.emit("warning", "config dropped: "+ErrNotConnected.Error())
		return ErrNotConnected
	}

	s.analyzer.SetPolicy(cfg.ConfidenceThreshold, cfg.Strictness)
	if cfg.AnalysisIntervalSec > 0 {
		s.queue.SetInterval(time.Duration(cfg.AnalysisIntervalSec) * time.Second)
	}
	s.emit("config", cfg)
	return nil
}

// Submit routes a frame to the queue while connected. While disconnected or
// connecting only the most recent frame is held for the state transition.
func (s *Session) Submit(f *Frame) {
	s.mu.Lock()
	if s.state != StateConnected {
		s.held = f
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.queue.Submit(f)
}
