package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"interview-proctor/api/internal/proctor"
)

type okGen struct{}

func (okGen) Generate(context.Context, []byte, string, string) (string, error) {
	return "OK", nil
}

func (okGen) Probe(context.Context) error { return nil }

func newTestHandler(hub *Hub) *Handler {
	analyzer := proctor.NewAnalyzer(okGen{}, proctor.Sinks{}, proctor.AnalyzerConfig{})
	queue := proctor.NewQueue(func(ctx context.Context, f *proctor.Frame) {
		_, _ = analyzer.Analyze(ctx, f)
	}, time.Second, time.Second)
	session := proctor.NewSession(analyzer, queue, hub.Signal)
	return NewHandler(hub, session)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestRegisterAfterCloseRefused(t *testing.T) {
	hub := NewHub()
	hub.Close()

	c := newClient(nil)
	if hub.register(c) {
		t.Fatal("register succeeded on a closed hub")
	}
	// The welcome that follows a refused registration must not panic.
	c.trySend(newMessage("welcome", nil))
}

func TestTrySendAfterCloseSendIsNoop(t *testing.T) {
	c := newClient(nil)
	c.closeSend()
	c.closeSend() // idempotent

	if c.trySend(newMessage("pong", nil)) {
		t.Fatal("trySend reported success on a closed client")
	}
}

func TestHubCloseRacesClientSend(t *testing.T) {
	hub := NewHub()
	c := newClient(nil)
	if !hub.register(c) {
		t.Fatal("register failed on a fresh hub")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			c.trySend(newMessage("violation", nil))
		}
	}()
	hub.Close()
	<-done

	if c.trySend(newMessage("violation", nil)) {
		t.Fatal("trySend reported success after hub shutdown")
	}
}

func TestBroadcastFansOut(t *testing.T) {
	hub := NewHub()
	a := newClient(nil)
	b := newClient(nil)
	hub.register(a)
	hub.register(b)

	hub.OnViolation(proctor.ViolationEvent{Type: "phone_detected"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if msg.Type != "violation" {
				t.Fatalf("message type = %q, want violation", msg.Type)
			}
		default:
			t.Fatal("client did not receive the broadcast")
		}
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	c := newClient(nil)
	hub.register(c)

	for c.trySend(newMessage("signal", nil)) {
	}

	// Must drop rather than block.
	hub.Broadcast("violation", nil)

	if got := len(c.send); got != sendBuffer {
		t.Fatalf("send buffer len = %d, want %d", got, sendBuffer)
	}
}

func TestUnregisterThenBroadcast(t *testing.T) {
	hub := NewHub()
	c := newClient(nil)
	hub.register(c)
	hub.unregister(c)
	hub.unregister(c) // second call must be harmless

	hub.Broadcast("violation", nil)
}

func TestHandlerSendsWelcomeAndAnswersPing(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(newTestHandler(hub))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var welcome Message
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != "welcome" {
		t.Fatalf("first message type = %q, want welcome", welcome.Type)
	}
	payload, ok := welcome.Payload.(map[string]any)
	if !ok || payload["state"] != "disconnected" {
		t.Fatalf("welcome payload = %v, want state disconnected", welcome.Payload)
	}

	if err := conn.WriteJSON(Message{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != "pong" {
		t.Fatalf("reply type = %q, want pong", pong.Type)
	}
}

func TestHandlerDropsConnectionsAfterShutdown(t *testing.T) {
	hub := NewHub()
	hub.Close()
	srv := httptest.NewServer(newTestHandler(hub))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// The server refuses the client right after the upgrade, so the first
	// read must fail instead of delivering a welcome.
	var msg Message
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("read succeeded after shutdown, got %+v", msg)
	}
}
