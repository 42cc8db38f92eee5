package proctor

import (
	"time"
)

// Frame is one captured webcam sample. Data is owned by the queue once
// submitted and must not be modified by the producer afterwards.
type Frame struct {
	Data       []byte
	MIME       string
	SessionID  string
	CapturedAt time.Time
}

// ViolationEvent is a single structured proctoring alert parsed out of a
// model reply. Immutable once created.
type ViolationEvent struct {
	Type       string  `json:"type"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details,omitempty"`
	SessionID  string  `json:"sessionId,omitempty"`
}

// Signal is a session lifecycle notification ("open", "close", "config",
// "warning") forwarded to UI subscribers alongside violations.
type Signal struct {
	Kind      string `json:"kind"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Sink receives violation events and analysis errors. Implementations must
// not block: the analyzer calls them inline from the analysis cycle.
type Sink interface {
	OnViolation(ev ViolationEvent)
	OnError(err error)
}

// Sinks fans out to every registered sink in order.
type Sinks []Sink

func (s Sinks) OnViolation(ev ViolationEvent) {
	for _, snk := range s {
		snk.OnViolation(ev)
	}
}

func (s Sinks) OnError(err error) {
	for _, snk := range s {
		snk.OnError(err)
	}
}

// SignalFunc receives session signals. A nil SignalFunc is allowed and
// ignored.
type SignalFunc func(sig Signal)

func newSignal(kind string, payload any) Signal {
	return Signal{
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
