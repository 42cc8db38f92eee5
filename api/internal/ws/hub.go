// Package ws streams proctoring events to interviewer UIs and accepts
// session commands and frames from interview clients over one WebSocket.
package ws

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"interview-proctor/api/internal/logger"
	"interview-proctor/api/internal/proctor"
)

// Message is the wire envelope in both directions.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newMessage(msgType string, payload any) Message {
	return Message{Type: msgType, Payload: payload, Timestamp: time.Now().Unix()}
}

// Hub tracks connected clients and fans outbound messages to all of them. It
// implements proctor.Sink so the analyzer can feed it directly.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// register adds the client unless the hub is already shut down. Callers must
// drop the connection when it returns false.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
	}
}

// Broadcast sends to every client, dropping the message for clients whose
// send buffer is full rather than blocking the pipeline.
func (h *Hub) Broadcast(msgType string, payload any) {
	msg := newMessage(msgType, payload)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.trySend(msg) {
			logger.L().Debug("ws send buffer full, dropping message",
				zap.String("type", msgType))
		}
	}
}

func (h *Hub) OnViolation(ev proctor.ViolationEvent) {
	h.Broadcast("violation", ev)
}

func (h *Hub) OnError(err error) {
	h.Broadcast("error", map[string]string{"message": err.Error()})
}

// Signal forwards session lifecycle signals to subscribers.
func (h *Hub) Signal(sig proctor.Signal) {
	h.Broadcast("signal", sig)
}

// Close disconnects all clients; used from the shutdown path.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.closeSend()
	}
}
