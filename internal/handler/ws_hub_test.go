package handler

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Mark-Phillipson/Risk/internal/service"
)

func newTestConn(sessionID string) *WSConn {
	return &WSConn{
		conn:      nil, // no real connection for hub tests
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := newTestConn("s-1")

	hub.Register(c)
	if hub.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", hub.ConnectionCount())
	}

	hub.Unregister(c)
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.ConnectionCount())
	}
	// second unregister must not panic on the closed channel
	hub.Unregister(c)
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub()
	c1 := newTestConn("s-1")
	c2 := newTestConn("s-2")
	c3 := newTestConn("s-3") // not subscribed

	for _, c := range []*WSConn{c1, c2, c3} {
		hub.Register(c)
		defer hub.Unregister(c)
	}
	hub.Subscribe(c1, "s-1")
	hub.Subscribe(c2, "s-1") // watching another session
	if hub.SessionSubscriberCount("s-1") != 2 {
		t.Fatalf("expected 2 subscribers, got %d", hub.SessionSubscriberCount("s-1"))
	}

	hub.BroadcastSessionEvent("s-1", service.EventRegionConquered, map[string]string{"code": "FRA"})

	for _, c := range []*WSConn{c1, c2} {
		select {
		case msg := <-c.send:
			var event WSEvent
			json.Unmarshal(msg, &event)
			if event.Type != service.EventRegionConquered || event.SessionID != "s-1" {
				t.Errorf("unexpected event %+v", event)
			}
		case <-time.After(time.Second):
			t.Error("subscriber did not receive broadcast")
		}
	}

	select {
	case <-c3.send:
		t.Error("c3 should not have received broadcast")
	default:
	}
}

func TestHubSessionClosedDropsSubscriptions(t *testing.T) {
	hub := NewHub()
	c := newTestConn("s-1")
	hub.Register(c)
	defer hub.Unregister(c)
	hub.Subscribe(c, "s-1")

	hub.BroadcastSessionEvent("s-1", service.EventSessionClosed, nil)

	select {
	case <-c.send:
	case <-time.After(time.Second):
		t.Fatal("expected session_closed event")
	}
	if hub.SessionSubscriberCount("s-1") != 0 {
		t.Error("expected subscriptions dropped after close")
	}
	if hub.ConnectionCount() != 1 {
		t.Error("connection itself should stay registered")
	}
}

func TestHubUnregisterCleansUpSubscriptions(t *testing.T) {
	hub := NewHub()
	c := newTestConn("s-1")
	hub.Register(c)
	hub.Subscribe(c, "s-1")
	hub.Subscribe(c, "s-2")

	hub.Unregister(c)

	for _, id := range []string{"s-1", "s-2"} {
		if n := hub.SessionSubscriberCount(id); n != 0 {
			t.Errorf("expected 0 subscribers for %s after unregister, got %d", id, n)
		}
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := &WSConn{sessionID: "s-1", send: make(chan []byte, 1)}
	hub.Register(c)
	defer hub.Unregister(c)
	hub.Subscribe(c, "s-1")

	hub.BroadcastSessionEvent("s-1", service.EventScene, 1)
	hub.BroadcastSessionEvent("s-1", service.EventScene, 2) // dropped, must not block

	if len(c.send) != 1 {
		t.Errorf("expected 1 queued message, got %d", len(c.send))
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestConn("s-1")
			hub.Register(c)
			hub.Subscribe(c, "s-1")
			hub.BroadcastSessionEvent("s-1", "test", nil)
			hub.Unsubscribe(c, "s-1")
			hub.Unregister(c)
		}()
	}

	wg.Wait()
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after concurrent test, got %d", hub.ConnectionCount())
	}
}

func TestClientMessageDecoding(t *testing.T) {
	var msg ClientMessage
	if err := json.Unmarshal([]byte(`{"action":"subscribe","session_id":"s-9"}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Action != "subscribe" || msg.SessionID != "s-9" {
		t.Errorf("unexpected message %+v", msg)
	}
}
