package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"interview-proctor/api/internal/logger"
	"interview-proctor/api/internal/proctor"
	"interview-proctor/api/internal/util"
)

const (
	pongWait   = 60 * time.Second
	pingEvery  = 30 * time.Second
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced upstream by the deployment.
		return true
	},
}

// Client is one WebSocket connection. The send channel is closed exactly once
// through closeSend; trySend checks the flag so a hub shutdown racing an
// inbound message cannot send on the closed channel.
type Client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan Message
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan Message, sendBuffer)}
}

// Handler upgrades connections and drives the session from inbound messages.
type Handler struct {
	hub     *Hub
	session *proctor.Session
}

func NewHandler(hub *Hub, session *proctor.Session) *Handler {
	return &Handler{hub: hub, session: session}
}

type framePayload struct {
	Image     string `json:"image"`
	MIME      string `json:"mime,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn)
	if !h.hub.register(c) {
		conn.Close()
		return
	}

	go h.readPump(c)
	go c.writePump()

	c.trySend(newMessage("welcome", map[string]string{
		"state": h.session.State().String(),
	}))
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L().Warn("ws read error", zap.Error(err))
			}
			return
		}
		h.dispatch(c, msg)
	}
}

func (h *Handler) dispatch(c *Client, msg Message) {
	switch msg.Type {
	case "ping":
		c.trySend(newMessage("pong", nil))

	case "connect":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := h.session.Connect(ctx)
		cancel()
		if err != nil {
			c.trySend(newMessage("error", map[string]string{"message": err.Error()}))
		}

	case "disconnect":
		h.session.Disconnect()

	case "config":
		var cfg proctor.SessionConfig
		if err := unmarshalPayload(msg.Payload, &cfg); err != nil {
			c.trySend(newMessage("error", map[string]string{"message": "bad config payload"}))
			return
		}
		if err := h.session.SendConfig(cfg); err != nil {
			c.trySend(newMessage("error", map[string]string{"message": err.Error()}))
		}

	case "frame":
		var p framePayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			c.trySend(newMessage("error", map[string]string{"message": "bad frame payload"}))
			return
		}
		img, hint, err := util.DecodeBase64MaybeDataURL(p.Image)
		if err != nil || len(img) == 0 {
			c.trySend(newMessage("error", map[string]string{"message": "bad frame image"}))
			return
		}
		// Fire and forget: the queue decides when (and whether) it runs.
		h.session.Submit(&proctor.Frame{
			Data:       img,
			MIME:       util.PickMIME(p.MIME, hint, img),
			SessionID:  p.SessionID,
			CapturedAt: time.Now(),
		})

	default:
		logger.L().Debug("ws unknown message type", zap.String("type", msg.Type))
	}
}

// trySend reports whether the message was queued. It never blocks and is a
// no-op once the client's send channel has been closed.
func (c *Client) trySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func unmarshalPayload(payload, v any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
