package livefeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/live"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	"github.com/Rasheed893/biotime-live-view/internal/livefeed"
)

const testOrigin = "http://dashboard.test"

func startHub(t *testing.T) *livefeed.Hub {
	t.Helper()
	hub := livefeed.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	h := http.Header{}
	if origin != "" {
		h.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, h)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m wireMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return m
}

func waitClients(t *testing.T, hub *livefeed.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != n {
		t.Fatalf("expected %d clients, got %d", n, hub.ClientCount())
	}
}

func TestHandler_SendsInitialThenBroadcasts(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(hub.Handler(livefeed.NewUpgrader([]string{testOrigin}), func() livefeed.Message {
		return livefeed.Message{Type: livefeed.MessageTypeSnapshot, Data: live.Snapshot{Running: true}}
	}))
	defer srv.Close()

	conn, _, err := dial(t, srv, testOrigin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if m := read(t, conn); m.Type != livefeed.MessageTypeSnapshot {
		t.Fatalf("expected initial snapshot, got %q", m.Type)
	}

	waitClients(t, hub, 1)
	hub.Broadcast(livefeed.Message{Type: "custom", Data: 7})
	if m := read(t, conn); m.Type != "custom" || string(m.Data) != "7" {
		t.Errorf("unexpected broadcast %+v", m)
	}
}

func TestHandler_PingGetsPong(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(hub.Handler(livefeed.NewUpgrader([]string{"*"}), nil))
	defer srv.Close()

	conn, _, err := dial(t, srv, testOrigin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(livefeed.Message{Type: livefeed.MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if m := read(t, conn); m.Type != livefeed.MessageTypePong {
		t.Errorf("expected pong, got %q", m.Type)
	}
}

func TestHandler_RejectsUnknownOrigin(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(hub.Handler(livefeed.NewUpgrader([]string{testOrigin}), nil))
	defer srv.Close()

	for _, origin := range []string{"", "http://evil.test"} {
		_, resp, err := dial(t, srv, origin)
		if err == nil {
			t.Errorf("origin %q: expected handshake failure", origin)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: expected 403, got %v", origin, resp)
		}
	}
}

type fixed []types.AttendanceLog

func (f fixed) Logs(context.Context, filter.Query) ([]types.AttendanceLog, error) { return f, nil }

func TestAttach_ForwardsReconcilerSnapshots(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(hub.Handler(livefeed.NewUpgrader([]string{"*"}), nil))
	defer srv.Close()

	r := live.NewReconciler(fixed{{LogID: "L1"}}, live.Config{})
	detach := hub.Attach(r)
	defer detach()

	conn, _, err := dial(t, srv, testOrigin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, hub, 1)

	if err := r.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	m := read(t, conn)
	if m.Type != livefeed.MessageTypeSnapshot {
		t.Fatalf("expected snapshot, got %q", m.Type)
	}
	var snap live.Snapshot
	if err := json.Unmarshal(m.Data, &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(snap.Rows) != 1 || snap.Rows[0].LogID != "L1" || len(snap.NewIDs) != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestServe_ClosesClientsOnShutdown(t *testing.T) {
	hub := livefeed.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()

	srv := httptest.NewServer(hub.Handler(livefeed.NewUpgrader([]string{"*"}), nil))
	defer srv.Close()
	conn, _, err := dial(t, srv, testOrigin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, hub, 1)

	cancel()
	<-done

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		// A bare close frame reads as 1005.
		t.Errorf("expected close frame, got %v", err)
	}
}
