package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quizwire/quizwire/presenter"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewHub(t *testing.T) {
	hub := testHub()

	if hub.channels == nil {
		t.Error("Hub channels map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := testHub()

	client := &Client{
		hub:        hub,
		channelKey: "room-1",
		send:       make(chan []byte, 256),
	}

	hub.registerClient(client)

	if _, exists := hub.channels["room-1"]; !exists {
		t.Error("channel was not created")
	}
	if !hub.channels["room-1"][client] {
		t.Error("client was not registered in channel")
	}
	if len(hub.channels["room-1"]) != 1 {
		t.Errorf("expected 1 watcher, got %d", len(hub.channels["room-1"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := testHub()

	client := &Client{
		hub:        hub,
		channelKey: "room-1",
		send:       make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.channels["room-1"]; exists {
		t.Error("channel should have been cleaned up after last watcher left")
	}
}

func TestHubMultipleWatchers(t *testing.T) {
	hub := testHub()

	client1 := &Client{hub: hub, channelKey: "room-1", send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, channelKey: "room-1", send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.channels["room-1"]) != 2 {
		t.Errorf("expected 2 watchers, got %d", len(hub.channels["room-1"]))
	}

	hub.unregisterClient(client1)

	if len(hub.channels["room-1"]) != 1 {
		t.Errorf("expected 1 watcher remaining, got %d", len(hub.channels["room-1"]))
	}
	if !hub.channels["room-1"][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastIsChannelScoped(t *testing.T) {
	hub := testHub()

	watcher := &Client{hub: hub, channelKey: "room-1", send: make(chan []byte, 256)}
	other := &Client{hub: hub, channelKey: "room-2", send: make(chan []byte, 256)}
	hub.registerClient(watcher)
	hub.registerClient(other)

	hub.broadcastEvent(&Event{
		ChannelKey: "room-1",
		Event:      EventMessagePosted,
		Message:    &presenter.Message{Ref: "m1", Text: "Question 1/3: ..."},
	})

	select {
	case data := <-watcher.send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if event.ChannelKey != "room-1" || event.Event != EventMessagePosted {
			t.Errorf("unexpected event: %+v", event)
		}
		if event.Message == nil || event.Message.Text != "Question 1/3: ..." {
			t.Errorf("message not transmitted: %+v", event.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("no event received within timeout")
	}

	select {
	case <-other.send:
		t.Error("event leaked into another channel")
	default:
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := testHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("channel")
		if key == "" {
			key = "default"
		}
		hub.ServeWS(w, r, key)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?channel=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	// Give some time for registration
	time.Sleep(50 * time.Millisecond)

	if len(hub.channels["ws-test"]) != 1 {
		t.Errorf("expected 1 watcher, got %d", len(hub.channels["ws-test"]))
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond)

	if _, exists := hub.channels["ws-test"]; exists {
		t.Error("channel should have been cleaned up after close")
	}
}

func TestPresenterFanOut(t *testing.T) {
	hub := testHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("channel"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?channel=room-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	mem := presenter.NewMemory()
	p := NewPresenter(mem, hub)
	ctx := context.Background()

	ref, err := p.Send(ctx, "room-1", "Question 1/2: ...")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	if event.Event != EventMessagePosted || event.Message.Text != "Question 1/2: ..." {
		t.Errorf("unexpected posted event: %+v", event)
	}

	// The wrapped channel still records the transcript.
	if got := len(mem.Transcript("room-1")); got != 1 {
		t.Fatalf("expected 1 transcript message, got %d", got)
	}

	if err := p.Edit(ctx, "room-1", ref, "Time's up!"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read edit event: %v", err)
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	if event.Event != EventMessageEdited || event.Message.Text != "Time's up!" {
		t.Errorf("unexpected edited event: %+v", event)
	}
}
