package live

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"asiops/pkg/events"
	"asiops/pkg/logger"
)

func newTestHub(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	hub := NewHub(origins, logger.New(logger.Config{Output: io.Discard}))
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", n, hub.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastsNotice(t *testing.T) {
	hub, srv := newTestHub(t)
	first := dial(t, srv)
	second := dial(t, srv)
	waitForSubscribers(t, hub, 2)

	err := hub.Publish(context.Background(), events.NewBookingEvent(events.BookingAllocationUpdated, "b1", nil))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		var notice Notice
		if err := json.Unmarshal(data, &notice); err != nil {
			t.Fatalf("bad payload %s: %v", data, err)
		}
		if notice.Type != NoticeType || notice.BookingID != "b1" || notice.Event != events.BookingAllocationUpdated {
			t.Errorf("unexpected notice: %+v", notice)
		}
	}
}

func TestHub_RemovesDisconnected(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	_ = conn.Close()
	waitForSubscribers(t, hub, 0)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	_, srv := newTestHub(t, "https://planner.example.com")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub, _ := newTestHub(t)
	if err := hub.Publish(context.Background(), events.NewBookingEvent(events.BookingDeleted, "b1", nil)); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}
