package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed while waiting for event")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("ClientCount = %d, want 1", n)
	}

	b.Unsubscribe(ch)
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("ClientCount after unsubscribe = %d, want 0", n)
	}
	if _, ok := <-ch; ok {
		t.Error("unsubscribed channel should be closed")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Publish(Event{Type: "test.event", Data: map[string]string{"k": "v"}})

	for _, ch := range []chan []byte{ch1, ch2} {
		msg := recv(t, ch)
		if !strings.Contains(msg, "event: test.event") {
			t.Errorf("msg = %q, want event line", msg)
		}
		if !strings.Contains(msg, `"k":"v"`) {
			t.Errorf("msg = %q, want data payload", msg)
		}
	}
}

func TestPublishSyncEvent(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch := b.Subscribe()
	b.PublishSyncEvent(3, 1)

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: sync.completed") {
		t.Errorf("msg = %q, want sync.completed", msg)
	}
	if !strings.Contains(msg, `"added":3`) || !strings.Contains(msg, `"removed":1`) {
		t.Errorf("msg = %q, want added/removed counts", msg)
	}
}

func TestDueCountThrottled(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()

	b.PublishDueCount(5)
	msg := recv(t, ch)
	if !strings.Contains(msg, "event: reminders.due_count") || !strings.Contains(msg, `"count":5`) {
		t.Fatalf("msg = %q, want due_count 5", msg)
	}

	// Within the throttle window: silently dropped.
	b.PublishDueCount(6)
	select {
	case msg := <-ch:
		t.Errorf("got %q, want no event inside throttle window", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch := b.Subscribe()

	// Exceed the per-client buffer; the broker must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish(Event{Type: "flood", Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broker blocked on a slow client")
	}

	// The client still receives the messages that fit its buffer.
	if msg := recv(t, ch); !strings.Contains(msg, "event: flood") {
		t.Errorf("msg = %q, want flood event", msg)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(0)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed")
	}

	// Post-close operations are no-ops.
	b.Publish(Event{Type: "late"})
	b.PublishDueCount(1)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after close = %d, want 0", n)
	}
	if _, ok := <-b.Subscribe(); ok {
		t.Error("Subscribe after close should return a closed channel")
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	req := httptest.NewRequest("GET", "/api/events", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the handler to register its subscription.
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.ClientCount() != 1 {
		t.Fatal("handler never subscribed")
	}

	b.Publish(Event{Type: "ping", Data: map[string]int{"n": 1}})
	time.Sleep(100 * time.Millisecond)

	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after broker close")
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: ping") || !strings.Contains(body, `"n":1`) {
		t.Errorf("body = %q, want streamed ping event", body)
	}
}
