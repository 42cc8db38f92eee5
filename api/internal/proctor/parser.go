package proctor

import (
	"regexp"
	"strings"
	"time"
)

// Marker is the wire contract between this service and the system prompt fed
// to the model: one violation per line, nothing else when the feed is clean.
// Changing it is a breaking change for both sides.
const Marker = "PROCTORING_VIOLATION:"

var markerRe = regexp.MustCompile(`PROCTORING_VIOLATION:\s*(.+)`)

// ParseViolations extracts every marker line from a model reply, in source
// order. Text without a marker yields an empty result; that is the normal
// steady state, not an error. The parser cannot score confidence from text,
// so every event carries the caller-supplied default.
func ParseViolations(text string, confidence float64) []ViolationEvent {
	matches := markerRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	events := make([]ViolationEvent, 0, len(matches))
	for _, m := range matches {
		events = append(events, ViolationEvent{
			Type:       strings.TrimSpace(m[1]),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Confidence: confidence,
			Details:    strings.TrimSpace(m[0]),
		})
	}
	return events
}
