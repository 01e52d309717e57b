package apihttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"podstream/internal/domain"
)

func startTestHub(t *testing.T) *wsHub {
	t.Helper()
	hub := newWSHub(slog.Default())
	go hub.run()
	return hub
}

func unregisterAll(hub *wsHub, clients ...*wsClient) {
	for _, c := range clients {
		hub.unregister <- c
	}
	time.Sleep(20 * time.Millisecond)
}

// dialWS upgrades an httptest.Server to a websocket connection.
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	resp.Body.Close()
	return conn
}

func readWSMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws message: %v", err)
	}
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v (raw: %s)", err, data)
	}
	return msg
}

func TestWSHubRegisterUnregister(t *testing.T) {
	hub := startTestHub(t)

	client := &wsClient{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)

	if hub.clientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.clientCount())
	}

	hub.unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.clientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.clientCount())
	}
}

func TestWSHubBroadcastToClients(t *testing.T) {
	hub := startTestHub(t)

	c1 := &wsClient{hub: hub, send: make(chan []byte, 256)}
	c2 := &wsClient{hub: hub, send: make(chan []byte, 256)}
	hub.register <- c1
	hub.register <- c2
	time.Sleep(20 * time.Millisecond)

	hub.Broadcast("episodes", []episodeSummary{{ID: "640000000000000000000001", Title: "Ep"}})
	time.Sleep(20 * time.Millisecond)

	for i, c := range []*wsClient{c1, c2} {
		select {
		case data := <-c.send:
			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("client %d: unmarshal: %v", i, err)
			}
			if msg.Type != "episodes" {
				t.Fatalf("client %d: type = %q, want episodes", i, msg.Type)
			}
		default:
			t.Fatalf("client %d: no message received", i)
		}
	}
	unregisterAll(hub, c1, c2)
}

func TestWSHubDropsSlowClient(t *testing.T) {
	hub := startTestHub(t)

	slow := &wsClient{hub: hub, send: make(chan []byte, 1)}
	hub.register <- slow
	time.Sleep(20 * time.Millisecond)

	slow.send <- []byte("fill")

	msg, _ := json.Marshal(wsMessage{Type: "episodes", Data: nil})
	hub.broadcast <- msg
	time.Sleep(20 * time.Millisecond)

	if hub.clientCount() != 0 {
		t.Fatalf("expected slow client to be dropped, got %d clients", hub.clientCount())
	}
}

func TestWSHubMarshalFailure(t *testing.T) {
	hub := startTestHub(t)

	client := &wsClient{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)

	// channels cannot be marshaled to JSON
	hub.Broadcast("bad", make(chan int))
	time.Sleep(20 * time.Millisecond)

	select {
	case <-client.send:
		t.Fatal("should not receive message when marshal fails")
	default:
	}
	unregisterAll(hub, client)
}

func TestHandleWSUpgradeAndBroadcastLibrary(t *testing.T) {
	list := &fakeListEpisodes{result: []domain.EpisodeWithOwner{
		sampleEpisode("640000000000000000000001", false),
	}}
	s := newTestServer(t, WithListEpisodes(list))
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	conn := dialWS(t, srv)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	s.BroadcastLibrary(context.Background())

	msg := readWSMessage(t, conn, 2*time.Second)
	if msg.Type != "episodes" {
		t.Fatalf("type = %q, want episodes", msg.Type)
	}
	arr, ok := msg.Data.([]interface{})
	if !ok {
		t.Fatalf("data is not an array: %T", msg.Data)
	}
	if len(arr) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(arr))
	}
	item := arr[0].(map[string]interface{})
	if _, leaked := item["audioFileId"]; leaked {
		t.Fatal("audioFileId leaked into ws broadcast")
	}
}

func TestHandleWSNonUpgradeRequest(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil))

	// gorilla/websocket returns 400 for non-upgrade requests.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServerCloseDisconnectsClients(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dialWS(t, srv)
	time.Sleep(50 * time.Millisecond)

	s.Close()
	time.Sleep(100 * time.Millisecond)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected error after server close")
	}
	conn.Close()
}

func TestBroadcastLibraryListFailure(t *testing.T) {
	list := &fakeListEpisodes{err: context.DeadlineExceeded}
	s := newTestServer(t, WithListEpisodes(list))
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	conn := dialWS(t, srv)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	// No message should go out when the list cannot be fetched.
	s.BroadcastLibrary(context.Background())
	time.Sleep(50 * time.Millisecond)

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read timeout, got message")
	}
}

func TestWSHubBroadcastWithoutClients(t *testing.T) {
	hub := startTestHub(t)

	// Must enqueue without touching hub state owned by the run loop.
	hub.Broadcast("episodes", []episodeSummary{})
	time.Sleep(20 * time.Millisecond)

	if hub.clientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.clientCount())
	}
	hub.Close()
}

func TestPumpGoroutinesExitAfterClose(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	before := runtime.NumGoroutine()
	conn := dialWS(t, srv)
	time.Sleep(50 * time.Millisecond)

	s.Close()
	conn.Close()

	// The read pump's deferred unregister must not park forever once the
	// hub loop has exited.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("goroutines still running after close: %d, started with %d",
		runtime.NumGoroutine(), before)
}

func TestUnregisterAfterCloseDoesNotBlock(t *testing.T) {
	hub := startTestHub(t)
	client := &wsClient{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)

	hub.Close()
	time.Sleep(20 * time.Millisecond)

	released := make(chan struct{})
	go func() {
		select {
		case hub.unregister <- client:
		case <-hub.done:
		}
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("unregister send blocked after hub close")
	}
}
